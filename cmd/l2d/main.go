// Command l2d creates DEMs (density, DSM, DTM, CHM, hillshade) from
// classified LiDAR point clouds using PDAL and GDAL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	l2d "github.com/PCLC7Z2/lidar2dems"
	"github.com/PCLC7Z2/lidar2dems/log"

	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"createdems", "create density, DSM and DTMs from LAS file(s) merged as one point cloud", runCreateDems},
	{"dems", "create DEMs for a site (or each of its features) from classified LAS files", runSiteDems},
	{"gapfill", "gap fill rasters of increasing radius into one raster", runGapFill},
	{"chm", "create canopy height model from DTM and DSM", runChm},
	{"hillshade", "create hillshade images", runHillshade},
	{"vrt", "combine rasters into a VRT", runVrt},
	{"stats", "summarize raster values, optionally plot a histogram", runStats},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: l2d <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", c.name, c.usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runCommand(ctx, cmd, os.Args[2:])
	stop()
	os.Exit(code)
}

func runCommand(ctx context.Context, cmd *command, args []string) int {
	defer log.Sync()
	start := time.Now()
	err := cmd.run(ctx, args)
	switch {
	case errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp):
		return 2
	case err != nil:
		log.Error("l2d "+cmd.name+" failed", zap.Error(err))
		return 1
	}
	log.Info("l2d "+cmd.name+" complete", zap.Duration("elapsed", time.Since(start)))
	return 0
}

// 各子命令共用的参数
type commonFlags struct {
	verbose            bool
	ignoreToolFailures bool
	pdal               string
	gdalBin            string
	resolution         float64
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "verbose (debug) logging")
	fs.BoolVar(&c.ignoreToolFailures, "ignore-tool-failures", false, "log external tool failures and continue")
	fs.StringVar(&c.pdal, "pdal", "", "pdal executable (default $"+l2d.ENV_PDAL+" or pdal)")
	fs.StringVar(&c.gdalBin, "gdal-bin", "", "directory of GDAL utilities (default $"+l2d.ENV_GDAL_BIN+" or PATH)")
	fs.Float64Var(&c.resolution, "resolution", l2d.DefaultResolution, "output raster resolution")
}

func (c *commonFlags) toolbox() *l2d.Toolbox {
	log.SetDebug(c.verbose)
	return l2d.NewToolbox(l2d.Config{
		Pdal:               c.pdal,
		GdalBin:            c.gdalBin,
		Resolution:         c.resolution,
		IgnoreToolFailures: c.ignoreToolFailures,
		Verbose:            c.verbose,
	})
}

func newFlagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: l2d %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// 参数解析错误按用法错误处理
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}
