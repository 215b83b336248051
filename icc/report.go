package icc

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Severity orders validation outcomes, the worst one seen wins.
type Severity int

const (
	ValidateOK Severity = iota
	ValidateWarning
	ValidateNonCompliant
	ValidateCriticalError
)

func (s Severity) String() string {
	switch s {
	case ValidateOK:
		return "OK"
	case ValidateWarning:
		return "Warning"
	case ValidateNonCompliant:
		return "NonCompliant"
	case ValidateCriticalError:
		return "CriticalError"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) prefix() string {
	switch s {
	case ValidateWarning:
		return "Warning! - "
	case ValidateNonCompliant:
		return "NonCompliant! - "
	case ValidateCriticalError:
		return "Error! - "
	}
	return ""
}

func MaxSeverity(a, b Severity) Severity { return max(a, b) }

// Issue is a single validation finding.
type Issue struct {
	Severity Severity
	Sig      Signature
	Msg      string
}

func (i *Issue) Error() string {
	if i.Sig == UnknownSignature {
		return i.Severity.prefix() + i.Msg
	}
	return i.Severity.prefix() + i.Sig.Hex() + " - " + i.Msg
}

// Report collects validation findings along with a human readable text
// rendering of them.
type Report struct {
	issues   *multierror.Error
	text     strings.Builder
	severity Severity
}

// Add records a finding and returns its severity so callers can fold it into
// their running result.
func (r *Report) Add(sev Severity, sig Signature, format string, args ...any) Severity {
	issue := &Issue{Severity: sev, Sig: sig, Msg: fmt.Sprintf(format, args...)}
	r.issues = multierror.Append(r.issues, issue)
	r.text.WriteString(issue.Error())
	r.text.WriteString("\n")
	r.severity = max(r.severity, sev)
	return sev
}

// Note appends informational text that is not an issue.
func (r *Report) Note(format string, args ...any) {
	fmt.Fprintf(&r.text, format, args...)
}

func (r *Report) Severity() Severity { return r.severity }
func (r *Report) String() string     { return r.text.String() }

func (r *Report) Issues() (ans []*Issue) {
	if r.issues == nil {
		return nil
	}
	for _, e := range r.issues.Errors {
		if i, ok := e.(*Issue); ok {
			ans = append(ans, i)
		}
	}
	return
}

// Err returns all findings of at least the given severity combined into one
// error, or nil if there are none.
func (r *Report) Err(min_severity Severity) error {
	var ans *multierror.Error
	for _, i := range r.Issues() {
		if i.Severity >= min_severity {
			ans = multierror.Append(ans, i)
		}
	}
	return ans.ErrorOrNil()
}
