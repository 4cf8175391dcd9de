package main

import (
	"strconv"
	"strings"

	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
)

const (
	defaultEpochs = 10

	envEpochs          = "EPOCHS"
	envMaxTrainSamples = "MAX_TRAIN_SAMPLES"
	envMaxTestSamples  = "MAX_TEST_SAMPLES"
)

// envConfig is what the environment may override.
type envConfig struct {
	Epochs          int
	MaxTrainSamples int // 0 means all
	MaxTestSamples  int // 0 means all
}

func readEnv(getenv func(string) string) envConfig {
	return envConfig{
		Epochs:          positiveInt(getenv(envEpochs), defaultEpochs),
		MaxTrainSamples: positiveInt(getenv(envMaxTrainSamples), 0),
		MaxTestSamples:  positiveInt(getenv(envMaxTestSamples), 0),
	}
}

// positiveInt parses s, falling back to def for anything that is not a positive integer.
func positiveInt(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func parseSummation(s string) (mlp.Summation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return mlp.ExactSum, nil
	case "clamped":
		return mlp.ClampedSum, nil
	}
	return 0, errors.Errorf("unknown summation %q: want exact or clamped", s)
}

func parseDigit(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || d < 0 || d > 9 {
		return -1, errors.New("Invalid digit. Please enter a value from 0 to 9.")
	}
	return d, nil
}
