package cleanup

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/mxtools/userlib-cleanup/engine/detect"
	"github.com/mxtools/userlib-cleanup/engine/library"
	"github.com/mxtools/userlib-cleanup/engine/routing"
	"github.com/mxtools/userlib-cleanup/engine/scanner"
	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

// Candidate is a file in the final removal set.
type Candidate struct {
	Filename string          `json:"filename"`
	Reasons  []detect.Reason `json:"reasons"`
}

// ProtectedHit is a flagged file kept because it matches a protected token.
type ProtectedHit struct {
	Filename string `json:"filename"`
	Token    string `json:"token"`
}

// ScannerStatus summarizes the scanner's contribution.
type ScannerStatus struct {
	Ran       bool   `json:"ran"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Findings  int    `json:"findings"`
	// Ignored counts findings that are not in the userlib listing.
	Ignored int `json:"ignored"`
}

// Report is the outcome of the detection pipeline.
type Report struct {
	Variant    routing.Variant       `json:"variant"`
	Scanned    int                   `json:"scanned"`
	Candidates []Candidate           `json:"candidates"`
	Protected  []ProtectedHit        `json:"protected"`
	Managed    []detect.ManagedMatch `json:"managed"`
	Duplicates []detect.Duplicate    `json:"duplicates"`
	Collisions []detect.Collision    `json:"collisions"`
	Metadata   []detect.Association  `json:"metadata"`
	Scanner    ScannerStatus         `json:"scanner"`
}

// Removable returns the filenames of the final removal set, sorted.
func (r *Report) Removable() []string {
	names := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		names[i] = c.Filename
	}
	return names
}

// Clean reports whether nothing is to be removed.
func (r *Report) Clean() bool {
	return len(r.Candidates) == 0
}

// Pipeline runs the detection stages of one variant.
type Pipeline struct {
	Variant    routing.Variant
	Protection library.ProtectionList
	Policy     detect.CollisionPolicy
	Oracle     scanner.Oracle
}

// Input is what the pipeline works on.
type Input struct {
	Dir     string
	Listing *Listing
	// Managed is only consulted by variants with managed cross reference.
	Managed detect.ManagedSet
}

// Run computes the removal set. It never touches the filesystem apart from
// what the oracle does; the returned error is only set when ctx ends.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Report, error) {
	log := logger.FromContext(ctx).With("variant", p.Variant)
	caps := p.Variant.Capabilities()
	report := &Report{Variant: p.Variant, Scanned: len(in.Listing.Archives)}
	candidates := detect.NewCandidateSet()

	// The scanner only reads the directory, so it runs alongside the
	// in-memory stages.
	var findings scanner.Findings
	g, gctx := errgroup.WithContext(ctx)
	useOracle := caps.Scanner && p.Oracle != nil
	if useOracle {
		g.Go(func() error {
			var err error
			findings, err = p.Oracle.Scan(gctx, in.Dir)
			return err
		})
	}

	archives := make([]library.Archive, 0, len(in.Listing.Archives))
	for _, name := range in.Listing.Archives {
		archives = append(archives, library.NewArchive(name, p.Protection))
	}

	if caps.Managed {
		report.Managed = detect.CrossReference(archives, in.Managed)
		for _, m := range report.Managed {
			log.Warn("found in vendorlib", "file", m.Filename, "managed_as", m.ManagedAs)
			candidates.Add(m.Filename, detect.ReasonManaged)
		}
	}

	if caps.Grouping {
		var ungrouped []library.Archive
		for _, a := range archives {
			if !candidates.Has(a.Filename) {
				ungrouped = append(ungrouped, a)
			}
		}
		grouped := detect.GroupDuplicates(ungrouped, p.Policy)
		report.Duplicates = grouped.Duplicates
		report.Collisions = grouped.Collisions
		for _, d := range grouped.Duplicates {
			candidates.Add(d.Filename, detect.ReasonDuplicate)
		}
		for _, c := range grouped.Collisions {
			log.Warn("identity collision needs manual review", "identity", c.Identity, "files", c.Filenames, "skipped", c.Skipped)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if useOracle {
		report.Scanner = ScannerStatus{Ran: true, Available: findings.Available, Reason: findings.Reason}
		if !findings.Available {
			log.Info("signature scanner unavailable, continuing without it", "reason", findings.Reason)
		}
		for _, f := range findings.Files {
			if !slices.Contains(in.Listing.Archives, f) {
				report.Scanner.Ignored++
				continue
			}
			report.Scanner.Findings++
			candidates.Add(f, detect.ReasonScanner)
		}
	}

	report.Metadata = detect.AssociateMetadata(candidates.Names(), in.Listing.Files)
	for _, a := range report.Metadata {
		candidates.Add(a.Sidecar, detect.ReasonMetadata)
	}

	removable, protected := p.Protection.Filter(candidates.Names())
	for _, name := range protected {
		token, _ := p.Protection.Match(name)
		report.Protected = append(report.Protected, ProtectedHit{Filename: name, Token: token})
	}
	for _, name := range removable {
		report.Candidates = append(report.Candidates, Candidate{Filename: name, Reasons: candidates.Reasons(name)})
	}
	log.Debug("detection finished", "scanned", report.Scanned, "removable", len(report.Candidates), "protected", len(report.Protected))
	return report, nil
}
