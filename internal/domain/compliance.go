package domain

// ComplianceCheck is the recorded outcome of one compliance rule evaluation.
// Every check is recorded whether it passed or failed.
type ComplianceCheck struct {
	Name     string
	Passed   bool
	Details  string
	Severity CheckSeverity
}

// ContactDecision is the result of the contact compliance gate. A blocked
// decision is a normal outcome, not an error; Checks always contains the
// outcome of every rule evaluated before (and including) the failing one.
type ContactDecision struct {
	Allowed  bool
	Reason   string
	Severity CheckSeverity
	Checks   []ComplianceCheck
}
