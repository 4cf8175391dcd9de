package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorgonia/cgan"
	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/digit/mnist"
	"github.com/gorgonia/cgan/encoding/gif"
	"github.com/gorgonia/cgan/encoding/mjpeg"
	"github.com/gorgonia/cgan/internal/history"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
)

const (
	defaultModel           = "model_weights.txt"
	defaultClassifierModel = "classifier_weights.txt"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	getenv           = os.Getenv
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	in := bufio.NewReader(stdin)
	if len(args) == 0 {
		fmt.Fprintln(stdout, "Enter command ('train' or 'test'):")
		line, _ := in.ReadString('\n')
		args = []string{strings.ToLower(strings.TrimSpace(line))}
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "test":
		return runTest(in, args[1:])
	case "score":
		return runScore(args[1:])
	case "train-classifier":
		return runTrainClassifier(ctx, args[1:])
	case "test-classifier":
		return runTestClassifier(args[1:])
	case "dot":
		return runDot(args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	default:
		return errors.Errorf("Unknown command %q. Exiting.", args[0])
	}
}

// networkFlags are shared by every command that builds networks.
type networkFlags struct {
	variant *string
	hidden  *int
	seed    *int64
	workers *int
	sum     *string
}

func addNetworkFlags(fs *flag.FlagSet) networkFlags {
	return networkFlags{
		variant: fs.String("variant", "conditional", "discriminator variant: conditional|multiclass"),
		hidden:  fs.Int("hidden", 128, "width of both hidden layers"),
		seed:    fs.Int64("seed", 0, "random seed, 0 seeds from the clock"),
		workers: fs.Int("workers", 1, "goroutines per layer"),
		sum:     fs.String("sum", "exact", "weighted sum: exact|clamped"),
	}
}

func (nf networkFlags) config(name string) (cgan.Config, error) {
	conf := cgan.DefaultConfig()
	conf.Name = name
	var err error
	if conf.Variant, err = cgan.ParseVariant(*nf.variant); err != nil {
		return conf, err
	}
	if conf.Sum, err = parseSummation(*nf.sum); err != nil {
		return conf, err
	}
	conf.Hidden = *nf.hidden
	conf.Seed = *nf.seed
	conf.Workers = *nf.workers
	if !conf.IsValid() {
		return conf, errors.Errorf("invalid configuration %+v", conf)
	}
	return conf, nil
}

// runName is the name runs are recorded under. An empty name is replaced by prefix and the start time.
func runName(name, prefix string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s-%s", prefix, time.Now().Format("20060102-150405.000"))
}

// openHistory opens and initializes the history backend. The caller closes it with history.CloseIfSupported.
func openHistory(ctx context.Context, kind, path string) (history.Store, error) {
	store, err := history.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = history.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}

// recordTo writes every epoch summary into store.
func recordTo(ctx context.Context, store history.Store) cgan.Recorder {
	return func(s cgan.EpochSummary) error {
		return store.SaveEpoch(ctx, history.Record{
			Run:      s.Run,
			Epoch:    s.Epoch,
			Samples:  s.Samples,
			Real:     s.Real,
			Fake:     s.Fake,
			Fool:     s.Fool,
			Accuracy: s.Accuracy,
			Elapsed:  s.Elapsed,
		})
	}
}

func loadSamples(dir string, max int, what string) ([]digit.Sample, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Errorf("%s directory not found: %s", what, dir)
	}
	samples, err := mnist.Load(dir)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(samples) > max {
		samples = digit.Limit(samples, max)
		log.Printf("%s sample limit enabled: %d", what, len(samples))
	}
	return samples, nil
}

func runTrain(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	data := fs.String("data", filepath.Join("mnist_png", "training"), "training directory laid out as <label>/<key>.png")
	model := fs.String("model", defaultModel, "weight file written after every epoch")
	gifPath := fs.String("gif", "", "write one frame of generated digits per epoch into this gif")
	mjpegAddr := fs.String("mjpeg", "", "stream generated digits on this address, e.g. :8080")
	statsPath := fs.String("stats", "", "dump per-epoch statistics as csv")
	storeKind := fs.String("history", "memory", "history backend: memory|sqlite")
	dbPath := fs.String("db-path", "cgan.db", "sqlite database path")
	name := fs.String("name", "", "run name in the history, defaults to cgan-<start time>")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := readEnv(getenv)
	conf, err := nf.config(runName(*name, "cgan"))
	if err != nil {
		return err
	}
	conf.Epochs = env.Epochs
	conf.ModelPath = *model

	samples, err := loadSamples(*data, env.MaxTrainSamples, "Training")
	if err != nil {
		return err
	}

	var encoders multiEncoder
	if *gifPath != "" {
		f, ferr := os.Create(*gifPath)
		if ferr != nil {
			return errors.WithStack(ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		encoders = append(encoders, gif.NewGifEncoder(f))
	}
	if *mjpegAddr != "" {
		enc := mjpeg.NewEncoder()
		go func(enc *mjpeg.Encoder) {
			mux := http.NewServeMux()
			mux.Handle("/", enc)
			mux.HandleFunc("/last.jpg", enc.ServeSnapshot)
			log.Printf("streaming generated digits on http://%s", *mjpegAddr)
			if err := http.ListenAndServe(*mjpegAddr, mux); err != nil {
				log.Println(err)
			}
		}(enc)
		encoders = append(encoders, enc)
	}
	if len(encoders) > 0 {
		conf.OutputEncoder = encoders
	}

	store, err := openHistory(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = history.CloseIfSupported(store)
	}()
	conf.Recorder = recordTo(ctx, store)

	a := cgan.New(conf)
	if err := a.Learn(samples, mnist.Open); err != nil {
		return err
	}
	if *statsPath != "" {
		if err := a.Dump(*statsPath); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "Training complete. Weights saved to %s\n", *model)
	fmt.Fprintf(stdout, "Run recorded as %s\n", conf.Name)
	return nil
}

func runTest(in *bufio.Reader, args []string) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	model := fs.String("model", defaultModel, "weight file")
	d := fs.String("digit", "", "digit to generate, prompted for when empty")
	out := fs.String("out", ".", "directory the png is written to")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw := *d
	if raw == "" {
		fmt.Fprintln(stdout, "Enter a digit to generate (0-9):")
		raw, _ = in.ReadString('\n')
	}
	label, err := parseDigit(raw)
	if err != nil {
		return err
	}

	conf, err := nf.config("cgan")
	if err != nil {
		return err
	}
	if _, err := os.Stat(*model); err != nil {
		return errors.Errorf("%s not found. Please run 'train' first.", *model)
	}
	a := cgan.New(conf)
	if err := a.LoadGenerator(*model); err != nil {
		if errors.Cause(err) == mlp.ErrIncompleteModel {
			return errors.WithMessage(err, fmt.Sprintf("G model weights are incomplete in %s", *model))
		}
		return err
	}

	im, err := a.Generate(label)
	if err != nil {
		return err
	}
	outPath := filepath.Join(*out, fmt.Sprintf("%d.png", label))
	if err := mnist.WritePNG(outPath, im); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Generated image saved: %s\n", outPath)
	return nil
}

func runScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	model := fs.String("model", defaultModel, "weight file")
	data := fs.String("data", filepath.Join("mnist_png", "testing"), "directory of images to score")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := readEnv(getenv)
	conf, err := nf.config("cgan")
	if err != nil {
		return err
	}
	samples, err := loadSamples(*data, env.MaxTestSamples, "Testing")
	if err != nil {
		return err
	}
	a := cgan.New(conf)
	if err := a.LoadDiscriminator(*model); err != nil {
		return err
	}

	var total float64
	for _, s := range samples {
		pixels, err := cgan.EncodeSample(mnist.Open, s)
		if err != nil {
			return err
		}
		realness, err := a.Score(pixels, s.Label)
		if err != nil {
			return err
		}
		total += realness.InexactFloat64()
		fmt.Fprintf(stdout, "%v\t%s\n", s, realness.StringFixed(6))
	}
	if len(samples) > 0 {
		fmt.Fprintf(stdout, "mean realness %.6f over %d samples\n", total/float64(len(samples)), len(samples))
	}
	return nil
}

func runTrainClassifier(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train-classifier", flag.ContinueOnError)
	data := fs.String("data", filepath.Join("mnist_png", "training"), "training directory")
	model := fs.String("model", defaultClassifierModel, "weight file written after every epoch")
	storeKind := fs.String("history", "memory", "history backend: memory|sqlite")
	dbPath := fs.String("db-path", "cgan.db", "sqlite database path")
	name := fs.String("name", "", "run name in the history, defaults to classifier-<start time>")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := readEnv(getenv)
	conf, err := nf.config(runName(*name, "classifier"))
	if err != nil {
		return err
	}
	conf.Epochs = env.Epochs
	conf.ModelPath = *model

	samples, err := loadSamples(*data, env.MaxTrainSamples, "Training")
	if err != nil {
		return err
	}
	store, err := openHistory(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = history.CloseIfSupported(store)
	}()
	conf.Recorder = recordTo(ctx, store)

	c := cgan.NewClassifier(conf)
	if err := c.Learn(samples, mnist.Open); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Training complete. Weights saved to %s\n", *model)
	fmt.Fprintf(stdout, "Run recorded as %s\n", conf.Name)
	return nil
}

func runTestClassifier(args []string) error {
	fs := flag.NewFlagSet("test-classifier", flag.ContinueOnError)
	data := fs.String("data", filepath.Join("mnist_png", "testing"), "testing directory")
	model := fs.String("model", defaultClassifierModel, "weight file")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	env := readEnv(getenv)
	conf, err := nf.config("classifier")
	if err != nil {
		return err
	}
	samples, err := loadSamples(*data, env.MaxTestSamples, "Testing")
	if err != nil {
		return err
	}
	c := cgan.NewClassifier(conf)
	if err := c.Load(*model); err != nil {
		return err
	}
	acc, err := c.Evaluate(samples, mnist.Open)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Accuracy: %.2f%% (%d/%d)\n", 100*acc, c.Correct, c.Correct+c.Wrong)
	return nil
}

func runDot(args []string) error {
	fs := flag.NewFlagSet("dot", flag.ContinueOnError)
	model := fs.String("model", "", "optional weight file to check against the topology")
	nf := addNetworkFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	conf, err := nf.config("cgan")
	if err != nil {
		return err
	}
	a := cgan.New(conf)
	if *model != "" {
		if err := a.Load(*model); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, a.D.ToDot())
	fmt.Fprintln(stdout, a.G.ToDot())
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind := fs.String("history", "sqlite", "history backend: memory|sqlite")
	dbPath := fs.String("db-path", "cgan.db", "sqlite database path")
	which := fs.String("run", "", "run to show, all runs are listed when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openHistory(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = history.CloseIfSupported(store)
	}()

	if *which == "" {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintln(stdout, r)
		}
		return nil
	}
	recs, ok, err := store.GetHistory(ctx, *which)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("no history for run %q", *which)
	}
	fmt.Fprintln(stdout, "epoch\tsamples\treal\tfake\tfool\taccuracy\telapsed")
	for _, r := range recs {
		fmt.Fprintf(stdout, "%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%v\n", r.Epoch, r.Samples, r.Real, r.Fake, r.Fool, r.Accuracy, r.Elapsed)
	}
	return nil
}
