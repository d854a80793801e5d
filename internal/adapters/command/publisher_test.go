package command

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/elrobot/internal/adapters/codec"
	"github.com/okian/elrobot/internal/domain/model"
	"github.com/okian/elrobot/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type sent struct {
	key     string
	payload []byte
}

type recordingSender struct {
	msgs []sent
	err  error
}

func (r *recordingSender) Publish(_ context.Context, key string, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, sent{key: key, payload: payload})
	return nil
}

func TestPublisher(t *testing.T) {
	Convey("Given a publisher on a custom topic", t, func() {
		s := &recordingSender{}
		p := NewPublisher(s, WithTopic("rt/robot/cmd_vel"))

		Convey("When a command is published", func() {
			cmd := model.Command{Linear: model.Vector3{X: 10}, Angular: model.Vector3{Z: -100}}
			So(p.Publish(context.Background(), cmd), ShouldBeNil)

			Convey("Then a CDR Twist lands on the topic", func() {
				So(s.msgs, ShouldHaveLength, 1)
				So(s.msgs[0].key, ShouldEqual, "rt/robot/cmd_vel")
				got, err := codec.DecodeTwist(s.msgs[0].payload)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, cmd)
			})
		})

		Convey("When the bus rejects the command", func() {
			s.err = errors.New("session closed")
			err := p.Publish(context.Background(), model.Command{})

			Convey("Then the failure is reported", func() {
				So(errors.Is(err, ErrPublish), ShouldBeTrue)
				So(s.msgs, ShouldBeEmpty)
			})
		})
	})

	Convey("Given no topic override", t, func() {
		p := NewPublisher(&recordingSender{}, WithTopic(""))
		So(p.Topic(), ShouldEqual, DefaultTopic)
	})
}
