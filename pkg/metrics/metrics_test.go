package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerOptions(t *testing.T) {
	Convey("Given a manager built on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(registry),
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10}),
			WithConstLabels(map[string]string{"env": "test"}),
		)

		Convey("Then the options are applied", func() {
			So(m.namespace, ShouldEqual, "test")
			So(m.subsystem, ShouldEqual, "unit")
			So(m.histogramBuckets, ShouldResemble, []float64{1, 10})
			So(m.constLabels["env"], ShouldEqual, "test")
		})

		Convey("Then collectors register under the namespace", func() {
			m.datasetsUploaded.Inc()
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			found := false
			for _, f := range families {
				if f.GetName() == "test_unit_datasets_uploaded_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})

		Convey("Then empty options keep the defaults", func() {
			d := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithNamespace(""), WithHistogramBuckets(nil))
			So(d.namespace, ShouldEqual, "combatlog")
			So(d.histogramBuckets, ShouldNotBeEmpty)
		})
	})
}

func TestSetup(t *testing.T) {
	Convey("Given a global manager rebuilt under a new namespace", t, func() {
		registry := Setup(WithNamespace("rebuilt"), WithConstLabels(map[string]string{"store": "memory"}))
		defer Setup()

		RecordDatasetDeleted()

		Convey("Then the returned registry serves the renamed collectors", func() {
			So(GetRegistry(), ShouldEqual, registry)
			n, err := testutil.GatherAndCount(registry, "rebuilt_analyzer_datasets_deleted_total")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(testutil.ToFloat64(globalManager.datasetsDeleted), ShouldEqual, 1)
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording dataset metrics", func() {
			before := testutil.ToFloat64(globalManager.datasetsUploaded)
			RecordDatasetUploaded()
			RecordDatasetUploaded()
			UpdateDatasetsStored(7)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.datasetsUploaded), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.datasetsStored), ShouldEqual, 7)
			})
		})

		Convey("When moving the active worker gauge", func() {
			UpdateWorkerCount(4)
			AddWorkerActive(1)
			AddWorkerActive(-1)

			Convey("Then it returns to its starting value", func() {
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 0)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordDatasetDuplicate()
				RecordDatasetDeleted()
				RecordRepositoryLatency("put", 0.3)
				RecordStreamsSmoothed(3)
				RecordSmoothingLatency(1.5)
				RecordMergeLatency(2.5)
				RecordMergedRows(120)
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerProcessingLatency(0.7)
				RecordWorkerError()
				RecordHTTPRequest("/datasets", "POST", "201")
				RecordHTTPRequestDuration("/datasets", "POST", "201", 4.2)
				RecordErrorByComponent("api", "bad_request")
				RecordErrorByType("bad_request", "warning")
				RecordErrorByEndpoint("/datasets", "POST", "bad_request")
				RecordErrorLatency("api", "bad_request", 1.0)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers without error", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
