package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/balance/internal/adapters/notify"
	"github.com/okian/balance/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *goredis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := goredis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := model.ResultRecord{
		ID:        "r1",
		OwnerID:   "u1",
		Answers:   model.AnswerSet{"q1": 5},
		Score:     66,
		Label:     "Good",
		CreatedAt: &created,
	}

	Convey("Given a publisher on a channel", t, func() {
		fake := &fakeRedis{}
		p := notify.NewPublisher(fake, "balance.results")

		Convey("When a record is created", func() {
			So(p.RecordCreated(ctx, rec), ShouldBeNil)

			Convey("Then the event is published as JSON without answers", func() {
				So(fake.channel, ShouldEqual, "balance.results")

				var ev notify.Event
				So(json.Unmarshal(fake.payload, &ev), ShouldBeNil)
				So(ev.Type, ShouldEqual, notify.EventRecordCreated)
				So(ev.RecordID, ShouldEqual, "r1")
				So(ev.OwnerID, ShouldEqual, "u1")
				So(ev.Score, ShouldEqual, 66)
				So(ev.CreatedAt.Equal(created), ShouldBeTrue)
				So(string(fake.payload), ShouldNotContainSubstring, "answers")
			})
		})

		Convey("When redis refuses the publish", func() {
			fake.err = errors.New("connection refused")
			err := p.RecordCreated(ctx, rec)

			Convey("Then the error names the channel", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "balance.results")
			})
		})

		Convey("Then closing a borrowed client is a no-op", func() {
			So(p.Close(), ShouldBeNil)
		})
	})

	Convey("Given no redis address", t, func() {
		_, err := notify.NewRedisPublisher(ctx, " ", "c")
		So(err, ShouldNotBeNil)
	})

	Convey("Given the no-op notifier", t, func() {
		So(notify.Noop{}.RecordCreated(ctx, rec), ShouldBeNil)
	})
}
