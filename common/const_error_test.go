package common

import (
	"errors"
	"fmt"
	"testing"
)

const errSample = ConstError("something went wrong")

func TestConstError_ReportsItsMessage(t *testing.T) {
	var err error = errSample
	if got, want := err.Error(), "something went wrong"; got != want {
		t.Errorf("unexpected message: %q != %q", got, want)
	}
}

func TestConstError_SurvivesWrapping(t *testing.T) {
	tests := map[string]struct {
		err      error
		contains bool
	}{
		"nil":             {nil, false},
		"the error":       {errSample, true},
		"other error":     {errors.New("something went wrong"), false},
		"wrapped once":    {fmt.Errorf("save failed: %w", errSample), true},
		"wrapped twice":   {fmt.Errorf("flush: %w", fmt.Errorf("save failed: %w", errSample)), true},
		"joined alone":    {errors.Join(errSample), true},
		"joined first":    {errors.Join(errSample, errors.New("other")), true},
		"joined last":     {errors.Join(errors.New("other"), errSample), true},
		"joined without":  {errors.Join(errors.New("other")), false},
		"same const text": {ConstError("something went wrong"), true},
	}

	for name, test := range tests {
		if got, want := errors.Is(test.err, errSample), test.contains; got != want {
			t.Errorf("unexpected result for %s: %t != %t", name, got, want)
		}
	}
}
