package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Packages importing testutil log at trace level, but only print when the
// test binary runs verbosely or TEST_LOG is set.
func init() {
	show := len(os.Getenv("TEST_LOG")) > 0
	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			show = true
		}
	}

	logrus.SetLevel(logrus.TraceLevel)

	if !show {
		logrus.StandardLogger().Out = io.Discard
	}
}
