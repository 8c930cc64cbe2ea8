package engine

import (
	"go.uber.org/zap"

	"github.com/iamNilotpal/mediacat/pkg/options"
)

// dataFileName and indexFileName are the fixed file names the engine keeps
// inside Options.DataDir.
const (
	dataFileName  = "data.mediacat"
	indexFileName = "index.snapshot"
)

// Config holds the parameters needed to initialize a new Engine, following
// the dependency-injection-via-Config pattern used throughout this
// module's constructors.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
