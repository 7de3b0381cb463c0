package swagger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/okian/vertexntuples/internal/adapters/http/api"
	"github.com/okian/vertexntuples/internal/adapters/http/swagger"
	app "github.com/okian/vertexntuples/internal/app"
	"github.com/okian/vertexntuples/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func schemas(doc map[string]any) map[string]any {
	components, _ := doc["components"].(map[string]any)
	s, _ := components["schemas"].(map[string]any)
	return s
}

func TestDocumentedEventRoundTrip(t *testing.T) {
	convey.Convey("Given the documented event example and a running service", t, func() {
		doc, err := yaml.Parser().Unmarshal(swagger.OpenAPI)
		convey.So(err, convey.ShouldBeNil)
		event, _ := schemas(doc)["Event"].(map[string]any)
		example, ok := event["example"]
		convey.So(ok, convey.ShouldBeTrue)
		body, err := json.Marshal(example)
		convey.So(err, convey.ShouldBeNil)

		ctx := context.Background()
		svc := app.New(app.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)

		convey.Convey("When it is posted to /events", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body)))
			svc.Stop()

			convey.Convey("Then it is accepted", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusAccepted)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"key":"1:2:3"`)
			})

			convey.Convey("And its summary reflects the documented content", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/1:2:3", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				var sum map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &sum), convey.ShouldBeNil)
				convey.So(sum["n_gv"], convey.ShouldEqual, float64(1))
				convey.So(sum["n_gv_sim_matched"], convey.ShouldEqual, float64(1))
				convey.So(sum["good_jets"], convey.ShouldEqual, float64(1))
				convey.So(sum["gen_matched_jets"], convey.ShouldEqual, float64(1))
			})
		})
	})
}

func TestDocumentedMomentumSchema(t *testing.T) {
	convey.Convey("Given the documented schemas", t, func() {
		doc, err := yaml.Parser().Unmarshal(swagger.OpenAPI)
		convey.So(err, convey.ShouldBeNil)
		s := schemas(doc)

		convey.Convey("Then P4 is a four-element array", func() {
			p4, _ := s["P4"].(map[string]any)
			convey.So(p4["type"], convey.ShouldEqual, "array")
			convey.So(p4["minItems"], convey.ShouldEqual, 4)
			convey.So(p4["maxItems"], convey.ShouldEqual, 4)
		})

		convey.Convey("And every momentum-carrying record refers to it", func() {
			for _, name := range []string{"GenParticle", "SimTrack", "Jet"} {
				schema, _ := s[name].(map[string]any)
				props, _ := schema["properties"].(map[string]any)
				field, _ := props["p4"].(map[string]any)
				convey.So(field["$ref"], convey.ShouldEqual, "#/components/schemas/P4")
			}
		})
	})
}
