package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/checkpoint"
	"github.com/born-ml/fnstack/function"
	"github.com/born-ml/fnstack/nn"
	"github.com/born-ml/fnstack/optim"
	"github.com/born-ml/fnstack/pipeline"
	"github.com/born-ml/fnstack/scheduler"
	"github.com/born-ml/fnstack/tensor"
)

type trainConfig struct {
	epochs      int
	batch       int
	hidden      int
	lr          float64
	optimizer   string
	accelerated bool
	seed        int64
	out         string
}

func runTrain(args []string) error {
	var cfg trainConfig
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.IntVar(&cfg.epochs, "epochs", 100, "training epochs")
	fs.IntVar(&cfg.batch, "batch", 64, "samples per epoch")
	fs.IntVar(&cfg.hidden, "hidden", 16, "hidden units")
	fs.Float64Var(&cfg.lr, "lr", 0.01, "initial learning rate")
	fs.StringVar(&cfg.optimizer, "optimizer", "adam", "update rule: sgd, momentum or adam")
	fs.BoolVar(&cfg.accelerated, "accelerated", false, "use the BLAS/parallel kernels")
	fs.Int64Var(&cfg.seed, "seed", 1, "random seed for the synthetic data")
	fs.StringVar(&cfg.out, "out", "", "checkpoint file to write")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	return train(cfg)
}

func newRule(name string, lr float32) (optim.Rule, error) {
	switch name {
	case "sgd":
		return optim.NewSGD(optim.SGDConfig{LR: lr}), nil
	case "momentum":
		return optim.NewMomentumSGD(optim.MomentumSGDConfig{LR: lr}), nil
	case "adam":
		return optim.NewAdam(optim.AdamConfig{LR: lr}), nil
	}
	return nil, errors.Errorf("unknown optimizer %q", name)
}

// spiral draws n points of a two-arm spiral; the label is the arm.
func spiral(rng *rand.Rand, n int) (*tensor.Tensor, []int) {
	x := tensor.Zeros(tensor.Shape{2}, n)
	labels := make([]int, n)
	for i := range n {
		arm := i % 2
		r := rng.Float64()
		theta := 4*r + float64(arm)*math.Pi + rng.NormFloat64()*0.1
		x.Sample(i)[0] = float32(r * math.Cos(theta))
		x.Sample(i)[1] = float32(r * math.Sin(theta))
		labels[i] = arm
	}
	return x, labels
}

func train(cfg trainConfig) error {
	rule, err := newRule(cfg.optimizer, float32(cfg.lr))
	if err != nil {
		return err
	}

	stack := pipeline.New("spiral",
		nn.NewLinear("fc1", nn.LinearConfig{In: 2, Out: cfg.hidden}),
		nn.NewTanh("act1"),
		nn.NewLinear("fc2", nn.LinearConfig{In: cfg.hidden, Out: cfg.hidden}),
		nn.NewTanh("act2"),
		nn.NewLinear("fc3", nn.LinearConfig{In: cfg.hidden, Out: 2}),
	)
	if err := stack.Compress(); err != nil {
		return err
	}
	stack.SetAccelerated(cfg.accelerated)

	opt := optim.New(rule, optim.WithGradientClipping(5))
	opt.SetUp(stack)
	sched := scheduler.NewStepDecay(scheduler.StepDecayConfig{StepSize: max(cfg.epochs/4, 1), Gamma: 0.5})

	rng := rand.New(rand.NewSource(cfg.seed))
	for epoch := 1; epoch <= cfg.epochs; epoch++ {
		x, labels := spiral(rng, cfg.batch)
		ys, err := stack.Forward(x)
		if err != nil {
			return err
		}
		loss, err := nn.SoftmaxCrossEntropy(ys[0], labels)
		if err != nil {
			return err
		}
		if err := function.Backward(ys[0]); err != nil {
			return err
		}
		if err := opt.Update(); err != nil {
			return err
		}
		opt.SetLR(sched.Step(opt.LR())[0])

		if epoch == 1 || epoch%10 == 0 || epoch == cfg.epochs {
			fmt.Printf("epoch %4d  loss %.4f  acc %.2f  lr %.5f\n", epoch, loss, accuracy(ys[0], labels), opt.LR())
		}
	}
	klog.V(1).InfoS("training finished", "updates", opt.UpdateCount(), "nodes", stack.Len())

	if cfg.out == "" {
		return nil
	}
	if err := checkpoint.SaveFile(cfg.out, stack); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", cfg.out)
	return nil
}

func accuracy(y *tensor.Tensor, labels []int) float64 {
	correct := 0
	for b, label := range labels {
		s := y.Sample(b)
		best := 0
		for i := range s {
			if s[i] > s[best] {
				best = i
			}
		}
		if best == label {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
