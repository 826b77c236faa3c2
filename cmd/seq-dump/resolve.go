package main

import (
	"context"

	"github.com/biodump/seqdump/dumperror"
	"github.com/biodump/seqdump/seqtable"
)

// openDatabase resolves the positional accession-or-path argument to a
// seqtable.Database. Accession resolution is explicitly out of scope for
// this repo (spec.md section 1, SPEC_FULL.md's Non-goals: "no
// accession-path resolution ... these remain stated-interface-only
// collaborators consumed by cmd/seq-dump") — the real implementation
// would dial out to a columnar-archive provider the way
// grailbio/base/file dials out to a registered storage scheme. Tests
// replace this var with a fake seqtable.Database.
var openDatabase = func(ctx context.Context, path string) (seqtable.Database, error) {
	return nil, dumperror.New(dumperror.Usage, "main.openDatabase",
		errAccessionResolutionUnavailable{path: path})
}

type errAccessionResolutionUnavailable struct{ path string }

func (e errAccessionResolutionUnavailable) Error() string {
	return "no columnar-archive provider registered for " + e.path
}
