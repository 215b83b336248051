package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kovidgoyal/iccmm/icc"
	"github.com/kovidgoyal/iccmm/meta"
)

var _ = fmt.Print

// load_profile reads a profile file, or the profile embedded in an image
func load_profile(path string, opts ...icc.ReadOption) (*icc.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if meta.DetectFormat(data) == meta.UNKNOWN {
		return icc.ReadProfile(data, opts...)
	}
	md, err := meta.LoadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := md.ICCProfile(opts...)
	if err == nil && p == nil {
		err = fmt.Errorf("the %s image %s has no embedded ICC profile", md.Format, path)
	}
	return p, err
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	validate_only := flag.Bool("validate", false, "only print the validation report")
	verbose := flag.Bool("verbose", false, "log details of profile loading")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: iccdump [options] profile-or-image-file")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	var opts []icc.ReadOption
	if *verbose {
		opts = append(opts, icc.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	p, err := load_profile(flag.Arg(0), opts...)
	if err != nil {
		return
	}
	sb := strings.Builder{}
	if !*validate_only {
		if err = p.Describe(&sb); err != nil {
			return
		}
		sb.WriteString("\n")
	}
	report, severity := p.Validate()
	sb.WriteString("Validation Report\n-----------------\n")
	sb.WriteString(report.String())
	fmt.Fprintf(&sb, "\nProfile is %s\n", severity)
	fmt.Print(sb.String())
	if severity >= icc.ValidateNonCompliant {
		os.Exit(2)
	}
}
