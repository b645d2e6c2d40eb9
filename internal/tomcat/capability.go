package tomcat

import (
	"fmt"
	"sort"
)

// Operation names a manager command. The values are the text endpoint names.
type Operation string

const (
	OpServerInfo               Operation = "serverinfo"
	OpList                     Operation = "list"
	OpDeploy                   Operation = "deploy"
	OpUndeploy                 Operation = "undeploy"
	OpStart                    Operation = "start"
	OpStop                     Operation = "stop"
	OpReload                   Operation = "reload"
	OpSessions                 Operation = "sessions"
	OpExpire                   Operation = "expire"
	OpStatus                   Operation = "status"
	OpVMInfo                   Operation = "vminfo"
	OpThreadDump               Operation = "threaddump"
	OpResources                Operation = "resources"
	OpFindLeakers              Operation = "findleaks"
	OpSSLConnectorCiphers      Operation = "sslConnectorCiphers"
	OpSSLConnectorCerts        Operation = "sslConnectorCerts"
	OpSSLConnectorTrustedCerts Operation = "sslConnectorTrustedCerts"
	OpSSLReload                Operation = "sslReload"
)

// Requirements maps each operation to the minimum server version that
// implements it. Minimums below Baseline have no effect.
type Requirements map[Operation]Version

var defaultRequirements = Requirements{
	OpServerInfo:               Baseline,
	OpList:                     Baseline,
	OpDeploy:                   Baseline,
	OpUndeploy:                 Baseline,
	OpStart:                    Baseline,
	OpStop:                     Baseline,
	OpReload:                   Baseline,
	OpSessions:                 Baseline,
	OpExpire:                   Baseline,
	OpStatus:                   Baseline,
	OpVMInfo:                   Baseline,
	OpThreadDump:               Baseline,
	OpResources:                Baseline,
	OpFindLeakers:              Baseline,
	OpSSLConnectorCiphers:      Baseline,
	OpSSLConnectorCerts:        Baseline,
	OpSSLConnectorTrustedCerts: Baseline,
	OpSSLReload:                Baseline,
}

// DefaultRequirements returns a copy of the built-in capability table.
func DefaultRequirements() Requirements {
	return defaultRequirements.clone()
}

func (r Requirements) clone() Requirements {
	out := make(Requirements, len(r))
	for op, v := range r {
		out[op] = v
	}
	return out
}

// Operations returns the operations in r sorted by name.
func (r Requirements) Operations() []Operation {
	ops := make([]Operation, 0, len(r))
	for op := range r {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Check decides whether op may run against a server at version. known is
// false when no version has been negotiated, in which case Check returns
// ErrNotConnected. A server below the minimum, or below Baseline for any
// operation, yields *UnsupportedError.
func (r Requirements) Check(op Operation, version Version, known bool) error {
	if !known {
		return ErrNotConnected
	}
	min, ok := r[op]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if min.Less(Baseline) {
		min = Baseline
	}
	if !version.AtLeast(min) {
		return &UnsupportedError{Operation: op, Minimum: min, Server: version}
	}
	return nil
}

// ImplementedBy reports whether a server at version implements op using the
// built-in table. It needs no connection.
func ImplementedBy(op Operation, version Version) bool {
	return defaultRequirements.Check(op, version, true) == nil
}

// UnsupportedError is returned by Check when the server is too old.
type UnsupportedError struct {
	Operation Operation
	Minimum   Version
	Server    Version
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s requires tomcat %s or later, server is %s", e.Operation, e.Minimum, e.Server)
}
