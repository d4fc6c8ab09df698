package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/combatlog/internal/adapters/http/api"
	service "github.com/okian/combatlog/internal/app"
)

const fightJSON = `[
  {"attacker": "You", "target": "Pirate", "weapon": "Laser", "enemy_ships": ["Rifter"],
   "damage": [[1000, 5], [2000, 5]]},
  {"attacker": "Pirate", "target": "You", "ticker": "PIR",
   "damage": [[1500, 3]]}
]`

func newTestServer(opts ...api.Option) (*httptest.Server, *service.Service) {
	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(32))
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(mux)
	return httptest.NewServer(mux), svc
}

func post(srv *httptest.Server, path, body string) *http.Response {
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	So(err, ShouldBeNil)
	return resp
}

func get(srv *httptest.Server, path string) *http.Response {
	resp, err := http.Get(srv.URL + path)
	So(err, ShouldBeNil)
	return resp
}

func decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	So(json.NewDecoder(resp.Body).Decode(v), ShouldBeNil)
}

func readAll(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return string(b)
}

type uploadBody struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestDatasets(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("When a log is uploaded twice", func() {
			first := post(srv, "/datasets", fightJSON)
			var a uploadBody
			decode(first, &a)
			second := post(srv, "/datasets", fightJSON)
			var b uploadBody
			decode(second, &b)

			Convey("Then the first is created and the second is a duplicate", func() {
				So(first.StatusCode, ShouldEqual, http.StatusCreated)
				So(second.StatusCode, ShouldEqual, http.StatusOK)
				So(a.ID, ShouldNotBeEmpty)
				So(b.Duplicate, ShouldBeTrue)
				So(b.ID, ShouldEqual, a.ID)
			})

			Convey("Then the summary shows derived fields", func() {
				var ds struct {
					You     string `json:"you"`
					Streams []struct {
						Weapon      string  `json:"weapon"`
						EnemyShips  string  `json:"enemy_ships"`
						TotalDamage float64 `json:"total_damage"`
						StartTime   int64   `json:"start_time"`
						EndTime     int64   `json:"end_time"`
					} `json:"streams"`
				}
				resp := get(srv, "/datasets/"+a.ID)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				decode(resp, &ds)
				So(ds.You, ShouldEqual, "You")
				So(ds.Streams, ShouldHaveLength, 2)
				So(ds.Streams[0].TotalDamage, ShouldEqual, 10)
				So(ds.Streams[0].StartTime, ShouldEqual, 1000)
				So(ds.Streams[0].EndTime, ShouldEqual, 2000)
				So(ds.Streams[1].Weapon, ShouldEqual, "Unknown")
				So(ds.Streams[1].EnemyShips, ShouldEqual, "Unknown")
			})

			Convey("Then deleting it makes it unknown", func() {
				req, err := http.NewRequest(http.MethodDelete, srv.URL+"/datasets/"+a.ID, nil)
				So(err, ShouldBeNil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)

				missing := get(srv, "/datasets/"+a.ID)
				var e errorBody
				decode(missing, &e)
				So(missing.StatusCode, ShouldEqual, http.StatusNotFound)
				So(e.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the object form names another listener", func() {
			resp := post(srv, "/datasets", `{"you": "Me", "streams": [{"attacker": "Me", "target": "Rat", "damage": [[0, 1]]}]}`)
			var up uploadBody
			decode(resp, &up)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			Convey("Then plots select by that identity", func() {
				var plots struct {
					Series []struct {
						Label string `json:"label"`
					} `json:"series"`
				}
				decode(get(srv, "/datasets/"+up.ID+"/plots"), &plots)
				So(plots.Series, ShouldHaveLength, 1)
				So(plots.Series[0].Label, ShouldEqual, "Rat [Unknown]")
			})
		})

		Convey("When uploads are malformed", func() {
			cases := []string{
				`{not json`,
				`[]`,
				`[{"attacker": "You", "damage": [[0, 1]]}]`,
				`[{"attacker": "You", "target": "X", "damage": [[2000, 1], [1000, 1]]}]`,
				`[{"attacker": "You", "target": "X", "damage": []}]`,
			}
			for _, body := range cases {
				resp := post(srv, "/datasets", body)
				var e errorBody
				decode(resp, &e)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(e.Code, ShouldEqual, "bad_request")
			}
		})
	})

	Convey("Given an API with a tiny upload limit", t, func() {
		srv, svc := newTestServer(api.WithMaxUploadBytes(16))
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("When a larger body is posted", func() {
			resp := post(srv, "/datasets", fightJSON)
			resp.Body.Close()

			Convey("Then 413 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestPlotsAndTable(t *testing.T) {
	Convey("Given an uploaded fight", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		var up uploadBody
		decode(post(srv, "/datasets", fightJSON), &up)

		type plotsBody struct {
			View   string `json:"view"`
			Window struct {
				Mode  string `json:"mode"`
				Width int    `json:"width"`
			} `json:"window"`
			Bounds *struct {
				Min int64 `json:"min"`
				Max int64 `json:"max"`
			} `json:"bounds"`
			Series []struct {
				Label  string       `json:"label"`
				Points [][2]float64 `json:"points"`
			} `json:"series"`
		}

		Convey("When asking for a trailing two-second attack plot", func() {
			var p plotsBody
			resp := get(srv, "/datasets/"+up.ID+"/plots?view=attack&mode=trailing&width=2")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			decode(resp, &p)

			Convey("Then the curve holds one sample per second", func() {
				So(p.View, ShouldEqual, "attack")
				So(p.Window.Mode, ShouldEqual, "trailing")
				So(p.Window.Width, ShouldEqual, 2)
				So(p.Bounds, ShouldNotBeNil)
				So(p.Bounds.Min, ShouldEqual, 1000)
				So(p.Series, ShouldHaveLength, 1)
				So(p.Series[0].Label, ShouldEqual, "Pirate Laser [Rifter]")
				So(p.Series[0].Points, ShouldResemble, [][2]float64{{1000, 2.5}, {2000, 5}})
			})
		})

		Convey("When asking for the defense view with only a mode", func() {
			var p plotsBody
			decode(get(srv, "/datasets/"+up.ID+"/plots?view=defense&mode=trailing"), &p)

			Convey("Then the trailing default width applies", func() {
				So(p.Window.Width, ShouldEqual, 10)
				So(p.Series, ShouldHaveLength, 1)
				So(p.Series[0].Label, ShouldEqual, "Pirate (PIR) [Unknown]")
			})
		})

		Convey("When the range excludes every stream", func() {
			var p plotsBody
			decode(get(srv, "/datasets/"+up.ID+"/plots?min=5000"), &p)

			Convey("Then no series and no bounds are returned", func() {
				So(p.Series, ShouldBeEmpty)
				So(p.Bounds, ShouldBeNil)
			})
		})

		Convey("When the query is invalid", func() {
			for _, q := range []string{"view=sideways", "width=abc", "width=0", "mode=gaussian", "min=9&max=1"} {
				resp := get(srv, "/datasets/"+up.ID+"/plots?"+q)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When downloading the table", func() {
			resp := get(srv, "/datasets/"+up.ID+"/table")
			body := readAll(resp)

			Convey("Then it is a CSV attachment with role headers", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/csv")
				So(resp.Header.Get("Content-Disposition"), ShouldContainSubstring, up.ID+".csv")
				So(body, ShouldEqual,
					"time,target: Pirate Laser [Rifter],attacker: Pirate (PIR) [Unknown]\n"+
						"1970/1/1 0:0:1,5,\n"+
						"1970/1/1 0:0:1,,3\n"+
						"1970/1/1 0:0:2,5,\n")
			})
		})

		Convey("When asking for the table as JSON", func() {
			var tbl struct {
				Headers []string `json:"headers"`
				Rows    []struct {
					Timestamp int64      `json:"timestamp"`
					Values    []*float64 `json:"values"`
				} `json:"rows"`
			}
			decode(get(srv, "/datasets/"+up.ID+"/table?format=json"), &tbl)

			Convey("Then empty cells are null", func() {
				So(tbl.Headers, ShouldHaveLength, 2)
				So(tbl.Rows, ShouldHaveLength, 3)
				So(tbl.Rows[1].Timestamp, ShouldEqual, 1500)
				So(tbl.Rows[1].Values[0], ShouldBeNil)
				So(*tbl.Rows[1].Values[1], ShouldEqual, 3)
			})
		})
	})
}

func TestSaveData(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		send := func(form url.Values) *http.Response {
			resp, err := http.PostForm(srv.URL+"/save_data", form)
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When posting sane metadata", func() {
			resp := send(url.Values{"content": {"a,b\n1,2\n"}, "filename": {"fight.csv"}, "content_type": {"text/csv"}})
			body := readAll(resp)

			Convey("Then the content comes back as a named attachment", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body, ShouldEqual, "a,b\n1,2\n")
				So(resp.Header.Get("Content-Type"), ShouldEqual, "text/csv")
				So(resp.Header.Get("Content-Disposition"), ShouldEqual, `attachment; filename="fight.csv"`)
			})
		})

		Convey("When posting unsafe metadata", func() {
			resp := send(url.Values{"content": {"x"}, "filename": {`../evil "name".csv`}, "content_type": {"text/html; charset=utf-8"}})
			_ = readAll(resp)

			Convey("Then it falls back to a bare octet-stream attachment", func() {
				So(resp.Header.Get("Content-Type"), ShouldEqual, "application/octet-stream")
				So(resp.Header.Get("Content-Disposition"), ShouldEqual, "attachment")
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, svc := newTestServer()
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("Then healthz, stats and metrics answer", func() {
			var health map[string]string
			decode(get(srv, "/healthz"), &health)
			So(health["status"], ShouldEqual, "ok")

			var stats map[string]any
			decode(get(srv, "/stats"), &stats)
			So(stats["started"], ShouldEqual, true)
			So(stats["serverTime"], ShouldNotBeEmpty)

			metrics := readAll(get(srv, "/metrics"))
			So(metrics, ShouldContainSubstring, "combatlog_analyzer_http_requests_total")
		})
	})
}
