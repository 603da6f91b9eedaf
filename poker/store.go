package poker

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-cfr/internal/fileutil"
)

// Persisted table names inside a data directory.
const (
	FiveTableFile  = "eval5.msgp"
	SevenTableFile = "eval7.msgp"
)

var rankTableCodec = fileutil.Codec[*RankTable]{
	Decode: DecodeRankTable,
	Encode: func(w io.Writer, t *RankTable) error { return t.EncodeMsg(w) },
}

// TableOptions controls LoadTables.
type TableOptions struct {
	// Dir holds the persisted tables. Empty keeps everything in memory.
	Dir string
	// Seven also loads (or builds) the seven-card table.
	Seven bool
	// Workers bounds the seven-card build; <= 0 uses all CPUs.
	Workers int
	Logger  *log.Logger
}

// LoadTables loads the evaluator tables from opts.Dir, building and saving
// whichever are missing.
func LoadTables(ctx context.Context, opts TableOptions) (*LookupTable, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	five, loaded, err := fileutil.LoadOrBuild(tablePath(opts.Dir, FiveTableFile), rankTableCodec, func() (*RankTable, error) {
		logger.Info("building five-card table")
		return BuildFiveTable()
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("five-card table ready", "classes", five.Len(), "from_disk", loaded)

	var seven *RankTable
	if opts.Seven {
		seven, loaded, err = fileutil.LoadOrBuild(tablePath(opts.Dir, SevenTableFile), rankTableCodec, func() (*RankTable, error) {
			logger.Info("building seven-card table", "workers", opts.Workers)
			return BuildSevenTable(ctx, five, opts.Workers)
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("seven-card table ready", "classes", seven.Len(), "from_disk", loaded)
	}
	return NewLookupTable(five, seven)
}

func tablePath(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}
