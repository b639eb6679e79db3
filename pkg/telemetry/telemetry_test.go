package telemetry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/telemetry"
)

func TestTelemetry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Telemetry Suite")
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []telemetry.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event telemetry.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var _ = Describe("Log", func() {
	var (
		ctx  context.Context
		path string
		log  *telemetry.Log
	)

	BeforeEach(func() {
		ctx = context.Background()
		path = filepath.Join(GinkgoT().TempDir(), "curation_log.jsonl")
		var err error
		log, err = telemetry.NewLog(path, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Record", func() {
		It("appends one JSON line per event", func() {
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 100, OutputChars: 40})).To(Succeed())
			Expect(log.Record(ctx, telemetry.Event{Entity: "Globex", InputChars: 50, OutputChars: 20})).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"entity":"Acme"`))
			Expect(string(data)).To(ContainSubstring(`"entity":"Globex"`))
		})

		It("stamps a zero TS with the current time", func() {
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme"})).To(Succeed())

			summary, err := log.Summarize(time.Minute)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(Equal(1))
		})

		It("forwards events to a configured publisher", func() {
			pub := &recordingPublisher{}
			pubLog, err := telemetry.NewLog(
				filepath.Join(GinkgoT().TempDir(), "log.jsonl"),
				zap.NewNop(),
				telemetry.WithPublisher(pub),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(pubLog.Record(ctx, telemetry.Event{Entity: "Acme"})).To(Succeed())
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Entity).To(Equal("Acme"))
		})
	})

	Describe("Summarize", func() {
		It("returns a zero summary for a missing log file", func() {
			summary, err := log.Summarize(24 * time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(BeZero())
			Expect(summary.PerEntity).To(BeEmpty())
		})

		It("aggregates totals and per-entity breakdowns inside the window", func() {
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 100, OutputChars: 40})).To(Succeed())
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 60, OutputChars: 30})).To(Succeed())
			Expect(log.Record(ctx, telemetry.Event{Entity: "Globex", InputChars: 10, OutputChars: 5})).To(Succeed())

			summary, err := log.Summarize(time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(Equal(3))
			Expect(summary.InputChars).To(Equal(170))
			Expect(summary.OutputChars).To(Equal(75))
			Expect(summary.PerEntity["Acme"].Events).To(Equal(2))
			Expect(summary.PerEntity["Acme"].InputChars).To(Equal(160))
			Expect(summary.PerEntity["Globex"].Events).To(Equal(1))
		})

		It("excludes events older than the window", func() {
			old := float64(time.Now().Add(-2*time.Hour).UnixNano()) / float64(time.Second)
			Expect(log.Record(ctx, telemetry.Event{TS: old, Entity: "Acme", InputChars: 100})).To(Succeed())
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 7})).To(Succeed())

			summary, err := log.Summarize(time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(Equal(1))
			Expect(summary.InputChars).To(Equal(7))
		})

		It("skips malformed lines without failing", func() {
			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 5})).To(Succeed())

			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			Expect(err).NotTo(HaveOccurred())
			_, err = f.WriteString("{not valid json\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Close()).To(Succeed())

			Expect(log.Record(ctx, telemetry.Event{Entity: "Acme", InputChars: 3})).To(Succeed())

			summary, err := log.Summarize(time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(Equal(2))
			Expect(summary.InputChars).To(Equal(8))
		})
	})
})
