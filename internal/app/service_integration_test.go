package service_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/barrace/internal/adapters/ws"
	"github.com/okian/barrace/internal/animator"
	service "github.com/okian/barrace/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

const raceDocument = `[
  {"date":"2020-01","affiliate":"A","aum":10},
  {"date":"2020-01","affiliate":"B","aum":5},
  {"date":"2020-02","affiliate":"A","aum":8},
  {"date":"2020-02","affiliate":"B","aum":12}
]`

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o600)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service reading a document from disk", t, func() {
		path := t.TempDir() + "/aum.json"
		So(writeFile(path, raceDocument), ShouldBeNil)

		cfg := animator.DefaultConfig()
		cfg.TickPeriod = 20 * time.Millisecond
		cfg.TransitionDuration = 10 * time.Millisecond

		svc := service.New(
			service.WithDataSource(path),
			service.WithAnimatorConfig(cfg),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		srv := httptest.NewServer(svc.Viewers())
		defer srv.Close()

		Convey("When a viewer connects", func() {
			url := "ws" + strings.TrimPrefix(srv.URL, "http")
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

			var first ws.Message
			_, raw, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			So(json.Unmarshal(raw, &first), ShouldBeNil)

			Convey("Then it receives the scene snapshot followed by live batches", func() {
				So(first.Type, ShouldEqual, ws.TypeSnapshot)

				var next ws.Message
				_, raw, err := conn.ReadMessage()
				So(err, ShouldBeNil)
				So(json.Unmarshal(raw, &next), ShouldBeNil)
				So(next.Type, ShouldBeIn, ws.TypeBatch, ws.TypeSnapshot)
				So(next.TimeKey, ShouldBeIn, "2020-01", "2020-02")
			})
		})

		Convey("When the service is stopped", func() {
			svc.Stop()

			Convey("Then playback accessors report not started", func() {
				_, err := svc.Playback(ctx)
				So(err, ShouldEqual, service.ErrNotStarted)
			})
		})
	})
}
