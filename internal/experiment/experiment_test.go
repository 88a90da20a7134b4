package experiment_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/glucosim/internal/dynamo"
	"github.com/san-kum/glucosim/internal/experiment"
	"github.com/san-kum/glucosim/internal/physiology"
	"github.com/san-kum/glucosim/internal/telemetry"
)

var _ = Describe("Simulate", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with the standard meal", func() {
		var out *experiment.Outcome

		BeforeEach(func() {
			var err error
			out, err = experiment.Simulate(ctx, experiment.DefaultRequest())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should sample 6001 points on [0, 600]", func() {
			tr := out.Trajectory
			Expect(tr.Complete()).To(BeTrue())
			Expect(tr.Times).To(HaveLen(6001))
			Expect(tr.States).To(HaveLen(6001))
			Expect(tr.Times[0]).To(Equal(0.0))
			Expect(tr.Times[6000]).To(Equal(600.0))
			for i := 1; i < len(tr.Times); i++ {
				Expect(tr.Times[i]).To(BeNumerically(">", tr.Times[i-1]))
			}
		})

		It("should start from the fasting baseline", func() {
			tr := out.Trajectory
			Expect(tr.States[0]).To(Equal(physiology.InitialState(physiology.DefaultMeal)))
			Expect(tr.Gp()[0]).To(Equal(178.0))
		})

		It("should keep every state finite", func() {
			for i, x := range out.Trajectory.States {
				Expect(x.IsValid()).To(BeTrue(), "sample %d: %v", i, x)
			}
		})

		It("should raise plasma glucose after the meal", func() {
			peak := 0.0
			for _, v := range out.Trajectory.Gp() {
				peak = math.Max(peak, v)
			}
			Expect(peak).To(BeNumerically(">", 178.0))
		})

		It("should empty the first stomach compartment monotonically", func() {
			q := out.Trajectory.Qsto1()
			for i := 1; i < len(q); i++ {
				Expect(q[i]).To(BeNumerically("<=", q[i-1]+1e-4), "t=%v", out.Trajectory.Times[i])
			}
			Expect(q[len(q)-1]).To(BeNumerically("<", 1.0))
		})

		It("should never add mass to the gut chain", func() {
			tr := out.Trajectory
			s1, s2, g := tr.Qsto1(), tr.Qsto2(), tr.Qgut()
			prev := s1[0] + s2[0] + g[0]
			for i := 1; i < len(s1); i++ {
				total := s1[i] + s2[i] + g[i]
				Expect(total).To(BeNumerically("<=", prev+1e-6*prev+1e-4), "t=%v", tr.Times[i])
				prev = total
			}
		})

		It("should report the resolved method and parameters", func() {
			Expect(out.Method).To(Equal("RK45"))
			Expect(out.Params).To(Equal(physiology.DefaultParams()))
			Expect(out.Trajectory.Stats.Accepted).To(BeNumerically(">", 0))
		})

		It("should be bit-reproducible", func() {
			again, err := experiment.Simulate(ctx, experiment.DefaultRequest())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Trajectory.Times).To(Equal(out.Trajectory.Times))
			Expect(again.Trajectory.States).To(Equal(out.Trajectory.States))
		})
	})

	Context("with no meal", func() {
		It("should have zero glucose appearance throughout", func() {
			req := experiment.DefaultRequest()
			req.Meal = 0

			out, err := experiment.Simulate(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			for _, ra := range out.Trajectory.Appearance() {
				Expect(ra).To(Equal(0.0))
			}
			for _, q := range out.Trajectory.Qgut() {
				Expect(q).To(Equal(0.0))
			}
		})
	})

	DescribeTable("method selection",
		func(method, canonical string) {
			req := experiment.DefaultRequest()
			req.Method = method
			req.TSpan = [2]float64{0, 120}

			out, err := experiment.Simulate(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Method).To(Equal(canonical))

			ref, err := experiment.Simulate(ctx, experiment.Request{Meal: physiology.DefaultMeal, TSpan: req.TSpan, ATol: 1e-6})
			Expect(err).NotTo(HaveOccurred())

			last := len(ref.Trajectory.States) - 1
			Expect(out.Trajectory.States).To(HaveLen(last + 1))
			Expect(out.Trajectory.Gp()[last]).To(BeNumerically("~", ref.Trajectory.Gp()[last], 1e-3*ref.Trajectory.Gp()[last]))
		},
		Entry("default name", "RK45", "RK45"),
		Entry("lower case", "rk45", "RK45"),
		Entry("adaptive prefix", "adaptive-RK45", "RK45"),
		Entry("Bogacki-Shampine", "RK23", "RK23"),
		Entry("classic fixed step", "rk4", "RK4"),
	)

	Context("with invalid input", func() {
		It("should reject an unknown method", func() {
			req := experiment.DefaultRequest()
			req.Method = "LSODA"
			_, err := experiment.Simulate(ctx, req)
			Expect(err).To(MatchError(ContainSubstring("unknown method")))
		})

		It("should reject an unknown model", func() {
			req := experiment.DefaultRequest()
			req.Model = "bergman"
			_, err := experiment.Simulate(ctx, req)
			Expect(err).To(MatchError(ContainSubstring("unknown model")))
		})

		It("should reject a negative meal", func() {
			req := experiment.DefaultRequest()
			req.Meal = -1
			_, err := experiment.Simulate(ctx, req)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an empty time span", func() {
			req := experiment.DefaultRequest()
			req.TSpan = [2]float64{100, 100}
			_, err := experiment.Simulate(ctx, req)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("should reject a zero time span instead of defaulting it", func() {
			req := experiment.DefaultRequest()
			req.TSpan = [2]float64{}
			_, err := experiment.Simulate(ctx, req)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())

			_, err = experiment.Simulate(ctx, experiment.Request{Meal: physiology.DefaultMeal})
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("should keep an explicit zero absolute tolerance", func() {
			req := experiment.DefaultRequest()
			req.TSpan = [2]float64{0, 30}
			req.ATol = 0
			req.RTol = 1e-4

			out, err := experiment.Simulate(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Request.ATol).To(BeZero())
			Expect(out.Request.RTol).To(Equal(1e-4))
		})

		It("should reject unknown parameters in strict mode only", func() {
			req := experiment.DefaultRequest()
			req.Params = map[string]float64{"k_abz": 0.1}

			_, err := experiment.Simulate(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			req.Strict = true
			_, err = experiment.Simulate(ctx, req)
			Expect(errors.Is(err, physiology.ErrUnknownParameter)).To(BeTrue())
		})

		It("should reject parameters that break the emptying curve", func() {
			req := experiment.DefaultRequest()
			req.Params = map[string]float64{"D": 0}
			_, err := experiment.Simulate(ctx, req)
			Expect(errors.Is(err, physiology.ErrParameterBounds)).To(BeTrue())
		})
	})

	Context("when the step budget runs out", func() {
		It("should fail with the partial trajectory", func() {
			req := experiment.DefaultRequest()
			req.MaxSteps = 3

			out, err := experiment.Simulate(ctx, req)
			Expect(errors.Is(err, dynamo.ErrStepLimit)).To(BeTrue())

			var ierr *dynamo.IntegrationError
			Expect(errors.As(err, &ierr)).To(BeTrue())
			Expect(ierr.Step).To(Equal(3))

			Expect(out).NotTo(BeNil())
			Expect(out.Trajectory.Status).To(Equal(dynamo.StatusFailed))
			Expect(out.Trajectory.Len()).To(BeNumerically("<", 6001))
		})
	})

	Context("with parameter overrides", func() {
		It("should apply them without touching the defaults", func() {
			req := experiment.DefaultRequest()
			req.Params = map[string]float64{"BW": 60}

			out, err := experiment.Simulate(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Params.BW).To(Equal(60.0))
			Expect(physiology.DefaultParamSet()["BW"]).To(Equal(78.0))
		})
	})
})

var _ = Describe("Runner", func() {
	It("should record telemetry for each run", func() {
		reg := prometheus.NewRegistry()
		collector, err := telemetry.NewCollector(reg)
		Expect(err).NotTo(HaveOccurred())

		runner := experiment.NewRunner(nil, collector)
		req := experiment.DefaultRequest()
		req.TSpan = [2]float64{0, 60}

		out, err := runner.Simulate(context.Background(), req)
		Expect(err).NotTo(HaveOccurred())

		Expect(testutil.ToFloat64(collector.Runs.WithLabelValues("dallaman", "RK45", "complete"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(collector.Evaluations.WithLabelValues("dallaman", "RK45"))).
			To(Equal(float64(out.Trajectory.Stats.Evaluations)))
	})

	It("should run independent requests in parallel in request order", func() {
		runner := experiment.NewRunner(nil, nil)

		var reqs []experiment.Request
		for _, meal := range []float64{0, 20000, 50000, 78000, 100000} {
			req := experiment.DefaultRequest()
			req.Meal = meal
			req.TSpan = [2]float64{0, 120}
			reqs = append(reqs, req)
		}

		runs := runner.SimulateAll(context.Background(), reqs, 3)
		Expect(runs).To(HaveLen(len(reqs)))

		for i, run := range runs {
			Expect(run.Err).NotTo(HaveOccurred())
			Expect(run.Outcome.Request.Meal).To(Equal(reqs[i].Meal))

			solo, err := runner.Simulate(context.Background(), reqs[i])
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Outcome.Trajectory.States).To(Equal(solo.Trajectory.States))
		}
	})

	It("should list the registered names", func() {
		reg := experiment.NewRegistry()
		Expect(reg.ListModels()).To(Equal([]string{"dallaman"}))
		Expect(reg.ListMethods()).To(Equal([]string{"RK23", "RK4", "RK45"}))
	})
})
