// seq-dump reconstructs FASTA/FASTQ records from a columnar sequence-read
// archive, joining alignment-table bases back onto their originating
// spots (spec.md sections 1 and 6).
//
// Usage: seq-dump [OPTIONS] <accession-or-path>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/join"
)

var (
	formatFlag = flag.String("format", "", `Output layout: one of "fastq", "fasta" combined with "-whole-spot", "-split-spot", "-split-files", "-split-3" (e.g. "fasta-split-3"); defaults to "fastq-whole-spot". "fasta-unsorted" bypasses the lookup pipeline entirely.`)

	splitSpotFlag        = flag.Bool("split-spot", false, "Legacy selector: split each spot's reads into separate records in one output")
	splitFilesFlag       = flag.Bool("split-files", false, "Legacy selector: route each read index to its own numbered output file")
	split3Flag           = flag.Bool("split-3", false, "Legacy selector: like split-files, but singleton reads go to a third, unnumbered file")
	concatenateReadsFlag = flag.Bool("concatenate-reads", false, "Legacy selector: concatenate every spot's reads into one record (the default)")
	fastaFlag            = flag.Bool("fasta", false, "Emit FASTA instead of FASTQ")
	fastaUnsortedFlag    = flag.Bool("fasta-unsorted", false, "Emit FASTA without joining aligned bases back in (bypasses the lookup pipeline)")

	threadsFlag  = flag.Int("threads", 2, "Worker count (M alignment-scan producers == K join workers); minimum 2")
	memFlag      = flag.Int("mem", 64<<20, "Memory budget per lookup sub-vector, in bytes")
	bufsizeFlag  = flag.Int("bufsize", 256<<10, "Per-bucket output I/O buffer size, in bytes, clamped to <=1GiB")
	curcacheFlag = flag.Int("curcache", 256<<20, "Sequence-table cursor cache budget, in bytes (range-checked only; not passed on to the archive provider)")
	tempFlag     = flag.String("temp", "", "Temp directory root (default os.TempDir())")
	outdirFlag   = flag.String("outdir", "", "Output directory (default: current directory)")
	tableFlag    = flag.String("table", "", "Override the default sequence-table name (defaults to probing CONSENSUS, then SEQUENCE)")

	seqDeflineFlag  = flag.String("seq-defline", "", "Sequence defline template (default varies by format/layout; see join.CompileTemplates)")
	qualDeflineFlag = flag.String("qual-defline", "", "Quality defline template (FASTQ only)")

	skipTechnicalFlag    = flag.Bool("skip-technical", false, "Omit technical reads from the output")
	includeTechnicalFlag = flag.Bool("include-technical", false, "Include technical reads in the output (the default)")
	minReadLenFlag       = flag.Int("min-read-len", 0, "Filter out reads shorter than this many bases")
	basesFlag            = flag.String("bases", "", "Filter out spots whose concatenated bases don't contain this substring")
	rowidAsNameFlag      = flag.Bool("rowid-as-name", false, "Use the row id in place of the spot name in deflines")
	printReadNrFlag      = flag.Bool("print-read-nr", false, "Force a read number into whole-spot deflines")

	onlyAlignedFlag   = flag.Bool("only-aligned", false, "Only dump spots with at least one aligned read")
	onlyUnalignedFlag = flag.Bool("only-unaligned", false, "Only dump spots with no aligned reads")

	forceFlag  = flag.Bool("force", false, "Overwrite existing output files")
	appendFlag = flag.Bool("append", false, "Append to existing output files")
	stdoutFlag = flag.Bool("stdout", false, "Write to standard output instead of a file; disables force, append, and compression")

	gzipFlag = flag.Bool("gzip", false, "Compress final output with gzip")

	terminateOnInvalidFlag = flag.Bool("terminate-on-invalid", false, "Treat any DataInvalid row as fatal for the whole run instead of skipping it")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <accession-or-path>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		usage()
		os.Exit(3)
	}
	accession := flag.Arg(0)

	runOpts, err := buildRunOptions(accession)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCode(err))
	}

	ctx := vcontext.Background()
	db, err := openDatabase(ctx, accession)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCode(err))
	}

	result, err := join.Run(ctx, db, runOpts, time.Now())
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCode(err))
	}

	log.Infof("wrote %d output file(s): %v", len(result.OutputPaths), result.OutputPaths)
	log.Infof("spots_read=%d reads_read=%d reads_written=%d reads_zero_length=%d "+
		"reads_technical=%d reads_too_short=%d reads_invalid=%d",
		result.Stats.SpotsRead, result.Stats.ReadsRead, result.Stats.ReadsWritten,
		result.Stats.ReadsZeroLength, result.Stats.ReadsTechnical, result.Stats.ReadsTooShort,
		result.Stats.ReadsInvalid)
}

// exitCode maps a dumperror.Kind to the exit codes spec.md section 6
// defines: 0 success, 3 unsupported-accession/bad-arguments, nonzero
// otherwise.
func exitCode(err error) int {
	if dumperror.Is(err, dumperror.Usage) || dumperror.Is(err, dumperror.NotFound) {
		return 3
	}
	return 1
}

// buildRunOptions assembles join.RunOptions from flags, resolving the
// format/layout selector (spec.md section 6's "format" plus the legacy
// split-spot/split-files/split-3/concatenate-reads/fasta/fasta-unsorted
// aliases) and validating flag combinations that are Usage errors rather
// than the silent-clear spec.md carves out for only-aligned/only-unaligned.
func buildRunOptions(accession string) (join.RunOptions, error) {
	format, layout, err := resolveFormat()
	if err != nil {
		return join.RunOptions{}, err
	}

	if *skipTechnicalFlag && *includeTechnicalFlag {
		return join.RunOptions{}, dumperror.New(dumperror.Usage, "main.buildRunOptions",
			fmt.Errorf("-skip-technical and -include-technical are mutually exclusive"))
	}
	if *appendFlag && *forceFlag {
		return join.RunOptions{}, dumperror.New(dumperror.Usage, "main.buildRunOptions",
			fmt.Errorf("-append and -force are mutually exclusive"))
	}

	opts := join.Options{
		Format: format,
		Layout: layout,

		Accession: accession,

		SeqDefline:  *seqDeflineFlag,
		QualDefline: *qualDeflineFlag,

		SkipTechnical: *skipTechnicalFlag,
		MinReadLen:    *minReadLenFlag,
		Bases:         *basesFlag,
		RowIDAsName:   *rowidAsNameFlag,
		PrintReadNr:   *printReadNrFlag,

		OnlyAligned:   *onlyAlignedFlag,
		OnlyUnaligned: *onlyUnalignedFlag,

		TerminateOnInvalid: *terminateOnInvalidFlag,

		BufSize: *bufsizeFlag,
	}
	opts.Normalize()

	var compressor join.Compressor
	if *gzipFlag && !*stdoutFlag {
		compressor = join.GzipCompression{}
	}

	runOpts := join.RunOptions{
		Options:       opts,
		TableOverride: *tableFlag,
		Threads:       *threadsFlag,
		MemLimit:      *memFlag,
		TempRoot:      *tempFlag,
		OutputDir:     *outdirFlag,
		Finalize: join.FinalizeOptions{
			Force:  *forceFlag,
			Append: *appendFlag,
			Stdout: *stdoutFlag,
		},
		Compressor: compressor,
	}
	// curcacheFlag is accepted and validated here but has nowhere to land
	// yet: the cursor cache is a property of the real columnar-archive
	// cursor implementation, which stays a stated-interface-only
	// collaborator behind seqtable.Database (see resolve.go).
	if *curcacheFlag < 0 {
		return join.RunOptions{}, dumperror.New(dumperror.Usage, "main.buildRunOptions",
			fmt.Errorf("-curcache must be >= 0"))
	}
	return runOpts, nil
}

// resolveFormat turns -format plus the legacy boolean selectors into an
// (OutputFormat, Layout) pair, matching spec.md section 6's table:
// "format" selects fastq/fasta x {whole-spot, split-spot, split-files,
// split-3, fasta-unsorted}, and the legacy flags are selectors for the
// same space.
func resolveFormat() (join.OutputFormat, join.Layout, error) {
	explicit := 0
	for _, set := range []bool{*splitSpotFlag, *splitFilesFlag, *split3Flag, *concatenateReadsFlag, *fastaUnsortedFlag} {
		if set {
			explicit++
		}
	}
	if explicit > 1 {
		return 0, 0, dumperror.New(dumperror.Usage, "main.resolveFormat",
			fmt.Errorf("at most one of -split-spot, -split-files, -split-3, -concatenate-reads, -fasta-unsorted may be set"))
	}

	if *formatFlag != "" {
		return parseFormatString(*formatFlag)
	}

	format := join.FormatFastq
	if *fastaFlag {
		format = join.FormatFasta
	}

	switch {
	case *fastaUnsortedFlag:
		return join.FormatFasta, join.FastaUnsorted, nil
	case *splitSpotFlag:
		return format, join.SplitSpot, nil
	case *splitFilesFlag:
		return format, join.SplitFiles, nil
	case *split3Flag:
		return format, join.Split3, nil
	default:
		return format, join.WholeSpot, nil
	}
}

var formatStrings = map[string]struct {
	format join.OutputFormat
	layout join.Layout
}{
	"fastq":             {join.FormatFastq, join.WholeSpot},
	"fastq-whole-spot":  {join.FormatFastq, join.WholeSpot},
	"fastq-split-spot":  {join.FormatFastq, join.SplitSpot},
	"fastq-split-files": {join.FormatFastq, join.SplitFiles},
	"fastq-split-3":     {join.FormatFastq, join.Split3},
	"fasta":             {join.FormatFasta, join.WholeSpot},
	"fasta-whole-spot":  {join.FormatFasta, join.WholeSpot},
	"fasta-split-spot":  {join.FormatFasta, join.SplitSpot},
	"fasta-split-files": {join.FormatFasta, join.SplitFiles},
	"fasta-split-3":     {join.FormatFasta, join.Split3},
	"fasta-unsorted":    {join.FormatFasta, join.FastaUnsorted},
}

func parseFormatString(s string) (join.OutputFormat, join.Layout, error) {
	v, ok := formatStrings[s]
	if !ok {
		return 0, 0, dumperror.New(dumperror.Usage, "main.parseFormatString",
			fmt.Errorf("unrecognized -format %q", s))
	}
	return v.format, v.layout, nil
}
