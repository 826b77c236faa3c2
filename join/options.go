package join

// Layout is the output-layout policy applied to a spot's reads
// (spec.md C10 step 2).
type Layout int

const (
	// WholeSpot concatenates all of a spot's reads into one record.
	WholeSpot Layout = iota
	// SplitSpot emits each read as its own record, still in one output.
	SplitSpot
	// SplitFiles routes each read index to its own numbered output bucket.
	SplitFiles
	// Split3 routes spots with more than one biological read to numbered
	// buckets, and spots with exactly one biological read to the
	// "singleton" bucket.
	Split3
	// FastaUnsorted skips the lookup entirely and emits only
	// CMP_READ-originated bases (unaligned reads), ignoring alignment ids.
	FastaUnsorted
)

// OutputFormat is FASTA or FASTQ.
type OutputFormat int

const (
	FormatFastq OutputFormat = iota
	FormatFasta
)

// Options configures a join run (spec.md C10/C11, mirroring
// sorter.SortOptions's single-struct-per-package convention).
type Options struct {
	Format OutputFormat
	Layout Layout

	Accession string

	SeqDefline  string
	QualDefline string

	SkipTechnical bool
	MinReadLen    int
	Bases         string // 2-bit nucleotide-substring filter pattern, or "".
	RowIDAsName   bool
	PrintReadNr   bool

	OnlyAligned   bool
	OnlyUnaligned bool

	TerminateOnInvalid bool

	// BufSize is each bucket writer's I/O buffer size in bytes (the
	// --bufsize flag, clamped to MaxBufSize at the CLI boundary). Zero
	// means defaultWriteBufSize.
	BufSize int
}

// MaxBufSize is the clamp spec.md section 6 places on --bufsize ("I/O
// buffer size, clamped to <=1 GiB").
const MaxBufSize = 1 << 30

// Normalize applies the CLI-level invariants that don't belong to flag
// parsing itself: only-aligned and only-unaligned are mutually exclusive,
// and spec.md section 6 says that if both are set, both are cleared
// (rather than treating it as a Usage error).
func (o *Options) Normalize() {
	if o.OnlyAligned && o.OnlyUnaligned {
		o.OnlyAligned = false
		o.OnlyUnaligned = false
	}
	if o.BufSize > MaxBufSize {
		o.BufSize = MaxBufSize
	}
}

// CompiledTemplates holds the precompiled seq/qual defline templates
// derived from Options, built once per run.
type CompiledTemplates struct {
	Seq  *Template
	Qual *Template
}

// CompileTemplates compiles o's defline strings, substituting spec.md's
// defaults for any left blank. The default templates include the read
// number for every layout but whole-spot (and fasta-unsorted, which is
// written the same way), where a read number would be
// meaningless (the record already covers every read); PrintReadNr forces
// it in anyway, matching print-read-nr's role in the original tool as a
// way to disambiguate whole-spot output by read count.
func CompileTemplates(o Options) (*CompiledTemplates, error) {
	seqStr, qualStr := o.SeqDefline, o.QualDefline
	if seqStr == "" {
		seqStr = defaultSeqDefline(o)
	}
	if qualStr == "" {
		qualStr = defaultQualDefline(o)
	}
	seq, err := CompileTemplate(seqStr)
	if err != nil {
		return nil, err
	}
	qual, err := CompileTemplate(qualStr)
	if err != nil {
		return nil, err
	}
	return &CompiledTemplates{Seq: seq, Qual: qual}, nil
}

// seqDeflineMarker is the leading record marker: '>' for FASTA, '@' for
// FASTQ (spec.md section 8 example 2: "split-spot fasta" yields
// ">ACC.1.1\nAAAA\n").
func seqDeflineMarker(o Options) byte {
	if o.Format == FormatFasta {
		return '>'
	}
	return '@'
}

func defaultSeqDefline(o Options) string {
	marker := string(seqDeflineMarker(o))
	if o.Format == FormatFasta {
		// spec.md section 8 scenarios 2-3: FASTA deflines carry only the
		// accession/spot/read numbering, no spot name or length suffix.
		if o.Layout == WholeSpot || o.Layout == FastaUnsorted {
			if o.PrintReadNr {
				return marker + "$ac.$si.$ri"
			}
			return marker + "$ac.$si"
		}
		return marker + "$ac.$si.$ri"
	}
	if o.Layout == WholeSpot || o.Layout == FastaUnsorted {
		if o.PrintReadNr {
			return marker + "$ac.$si.$ri $sn length=$rl"
		}
		return marker + "$ac.$si $sn length=$rl"
	}
	return marker + "$ac.$si.$ri $sn length=$rl"
}

func defaultQualDefline(o Options) string {
	if o.Layout == WholeSpot || o.Layout == FastaUnsorted {
		if o.PrintReadNr {
			return "+$ac.$si.$ri $sn length=$rl"
		}
		return DefaultQualDefline
	}
	return "+$ac.$si.$ri $sn length=$rl"
}
