package mlp

import "testing"

func TestDefaultConfigs(t *testing.T) {
	for _, conf := range []Config{
		GeneratorConf(10, 28*28, 128),
		DiscriminatorConf(28*28+10, 1, 128),
		DiscriminatorConf(28*28, 11, 128),
		ClassifierConf(10, 28*28, 128),
	} {
		if !conf.IsValid() {
			t.Errorf("Expected %+v to be valid", conf)
		}
	}
}

func TestInvalidConfigs(t *testing.T) {
	bad := GeneratorConf(10, 28*28, 0)
	if bad.IsValid() {
		t.Errorf("Expected zero hidden width to be invalid")
	}
	bad = GeneratorConf(10, 28*28, 128)
	bad.Sum = ClampedSum
	bad.SumBound = 0
	if bad.IsValid() {
		t.Errorf("Expected ClampedSum without a bound to be invalid")
	}
}

var correctSections = []struct {
	name    string
	correct [4]string
}{
	{"", [4]string{"INPUT", "HIDDEN1", "HIDDEN2", "OUTPUT"}},
	{"D", [4]string{"D_input", "D_hidden1", "D_hidden2", "D_output"}},
	{"G", [4]string{"G_input", "G_hidden1", "G_hidden2", "G_output"}},
}

func TestSections(t *testing.T) {
	for _, c := range correctSections {
		got := Config{Name: c.name}.Sections()
		for i := range c.correct {
			if got[i] != c.correct[i] {
				t.Errorf("Expected section %d of %q to be %v. Got %v instead", i, c.name, c.correct[i], got[i])
			}
		}
	}
}
