package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/barrace/internal/adapters/http/api"
	"github.com/okian/barrace/internal/adapters/render"
	"github.com/okian/barrace/internal/adapters/repository"
	"github.com/okian/barrace/internal/animator"
	"github.com/okian/barrace/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeps struct {
	frames      []model.Frame
	status      animator.Status
	unavailable bool
	renderErr   error
	starts      int
	stops       int
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": !m.unavailable, "frames": len(m.frames)}
}

func (m *mockDeps) check() error {
	if m.unavailable {
		return fmt.Errorf("%w: not loaded", api.ErrUnavailable)
	}
	return nil
}

func (m *mockDeps) Frames(ctx context.Context) ([]model.Frame, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.frames, nil
}

func (m *mockDeps) Frame(ctx context.Context, index int) (model.Frame, error) {
	if err := m.check(); err != nil {
		return model.Frame{}, err
	}
	if index >= len(m.frames) {
		return model.Frame{}, fmt.Errorf("%w: index %d", repository.ErrNotFound, index)
	}
	return m.frames[index], nil
}

func (m *mockDeps) RenderFrame(ctx context.Context, w io.Writer, index int, format render.Format) error {
	if _, err := m.Frame(ctx, index); err != nil {
		return err
	}
	if m.renderErr != nil {
		return m.renderErr
	}
	_, err := io.WriteString(w, "image:"+string(format))
	return err
}

func (m *mockDeps) Playback(ctx context.Context) (animator.Status, error) {
	return m.status, m.check()
}

func (m *mockDeps) StartPlayback(ctx context.Context) (animator.Status, error) {
	if err := m.check(); err != nil {
		return animator.Status{}, err
	}
	m.starts++
	m.status.State = "playing"
	return m.status, nil
}

func (m *mockDeps) StopPlayback(ctx context.Context) (animator.Status, error) {
	if err := m.check(); err != nil {
		return animator.Status{}, err
	}
	m.stops++
	m.status.State = "stopped"
	return m.status, nil
}

func (m *mockDeps) Viewers() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sampleFrames() []model.Frame {
	return []model.Frame{
		{TimeKey: "2020-01", Entries: []model.Entry{{Entity: "A", Value: 10}, {Entity: "B", Value: 5}}},
		{TimeKey: "2020-02", Entries: []model.Entry{{Entity: "B", Value: 12}, {Entity: "A", Value: 8}}},
	}
}

func TestFramesRoutes(t *testing.T) {
	Convey("Given an API over two frames", t, func() {
		deps := &mockDeps{frames: sampleFrames()}
		mux := newMux(deps)

		Convey("When listing frames", func() {
			rec := serve(mux, http.MethodGet, "/frames")

			Convey("Then every frame is returned in order", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Count  int           `json:"count"`
					Frames []model.Frame `json:"frames"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.Count, ShouldEqual, 2)
				So(body.Frames[1].TimeKey, ShouldEqual, "2020-02")
			})
		})

		Convey("When reading one frame", func() {
			rec := serve(mux, http.MethodGet, "/frames/1")

			Convey("Then the ranked entries are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var f model.Frame
				So(json.Unmarshal(rec.Body.Bytes(), &f), ShouldBeNil)
				So(f.Entries[0].Entity, ShouldEqual, "B")
			})
		})

		Convey("When the index is past the end", func() {
			rec := serve(mux, http.MethodGet, "/frames/9")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(rec.Body.String(), ShouldContainSubstring, "not_found")
		})

		Convey("When the index is not a number", func() {
			rec := serve(mux, http.MethodGet, "/frames/abc")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the index is negative", func() {
			rec := serve(mux, http.MethodGet, "/frames/-1")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When frames are posted", func() {
			rec := serve(mux, http.MethodPost, "/frames")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestChartRoute(t *testing.T) {
	Convey("Given an API over two frames", t, func() {
		deps := &mockDeps{frames: sampleFrames()}
		mux := newMux(deps)

		Convey("When a chart is requested without a format", func() {
			rec := serve(mux, http.MethodGet, "/frames/0/chart")

			Convey("Then a PNG is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(rec.Body.String(), ShouldEqual, "image:png")
			})
		})

		Convey("When an SVG chart is requested", func() {
			rec := serve(mux, http.MethodGet, "/frames/0/chart?format=svg")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml")
		})

		Convey("When an unknown format is requested", func() {
			rec := serve(mux, http.MethodGet, "/frames/0/chart?format=gif")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the frame has nothing to draw", func() {
			deps.renderErr = fmt.Errorf("%w: 2020-01", render.ErrEmptyFrame)
			rec := serve(mux, http.MethodGet, "/frames/0/chart")
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
		})
	})
}

func TestPlaybackRoutes(t *testing.T) {
	Convey("Given an API with idle playback", t, func() {
		deps := &mockDeps{frames: sampleFrames(), status: animator.Status{State: "idle", Frames: 2}}
		mux := newMux(deps)

		Convey("When reading the playback status", func() {
			rec := serve(mux, http.MethodGet, "/playback")
			var st animator.Status
			So(json.Unmarshal(rec.Body.Bytes(), &st), ShouldBeNil)
			So(st.State, ShouldEqual, "idle")
			So(st.Frames, ShouldEqual, 2)
		})

		Convey("When starting and stopping playback", func() {
			start := serve(mux, http.MethodPost, "/playback/start")
			stop := serve(mux, http.MethodPost, "/playback/stop")

			Convey("Then the controls reach the dependencies", func() {
				So(start.Code, ShouldEqual, http.StatusOK)
				So(stop.Code, ShouldEqual, http.StatusOK)
				So(deps.starts, ShouldEqual, 1)
				So(deps.stops, ShouldEqual, 1)
				So(stop.Body.String(), ShouldContainSubstring, `"state":"stopped"`)
			})
		})

		Convey("When start is requested with GET", func() {
			rec := serve(mux, http.MethodGet, "/playback/start")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(deps.starts, ShouldEqual, 0)
		})
	})
}

func TestUnavailable(t *testing.T) {
	Convey("Given an API before a race is loaded", t, func() {
		mux := newMux(&mockDeps{unavailable: true})

		Convey("Then data routes answer service unavailable", func() {
			for _, path := range []string{"/frames", "/frames/0", "/frames/0/chart", "/playback"} {
				rec := serve(mux, http.MethodGet, path)
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			}
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API", t, func() {
		mux := newMux(&mockDeps{frames: sampleFrames()})

		Convey("When reading stats", func() {
			rec := serve(mux, http.MethodGet, "/stats")
			var stats map[string]interface{}
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["frames"], ShouldEqual, 2.0)
			So(stats, ShouldContainKey, "goroutines")
		})

		Convey("When reading health", func() {
			serve(mux, http.MethodGet, "/frames")
			rec := serve(mux, http.MethodGet, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "barrace_race_http_requests_total")
		})

		Convey("When reading the schema", func() {
			rec := serve(mux, http.MethodGet, "/schema")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := rec.Body.String()
			So(body, ShouldContainSubstring, `"type": "array"`)
			So(body, ShouldContainSubstring, `"affiliate"`)
			So(strings.Contains(body, `"$ref"`), ShouldBeFalse)
		})

		Convey("When a viewer connects", func() {
			rec := serve(mux, http.MethodGet, "/ws")
			So(rec.Code, ShouldEqual, http.StatusTeapot)
		})
	})
}

func TestRecordsSchema(t *testing.T) {
	Convey("Given the reflected records schema", t, func() {
		s := api.RecordsSchema()

		Convey("Then items require every record field", func() {
			So(s.Type, ShouldEqual, "array")
			So(s.Items, ShouldNotBeNil)
			So(s.Items.Required, ShouldResemble, []string{"date", "affiliate", "aum"})
		})
	})
}
