package domain

// SyncPhase is a named stage of a library sync run. Phases always
// progress in the fixed order Scanning -> MetadataExtraction ->
// Validation -> Cleanup before returning to Idle.
type SyncPhase int

const (
	SyncIdle SyncPhase = iota
	SyncScanning
	SyncMetadataExtraction
	SyncValidation
	SyncCleanup
)

// String returns the wire/name form of the phase.
func (p SyncPhase) String() string {
	switch p {
	case SyncScanning:
		return "scanning"
	case SyncMetadataExtraction:
		return "metadata"
	case SyncValidation:
		return "validation"
	case SyncCleanup:
		return "cleanup"
	default:
		return "idle"
	}
}

// ParseSyncPhase converts a phase name to a SyncPhase. Unknown names map
// to SyncIdle.
func ParseSyncPhase(s string) SyncPhase {
	switch s {
	case "scanning":
		return SyncScanning
	case "metadata":
		return SyncMetadataExtraction
	case "validation":
		return SyncValidation
	case "cleanup":
		return SyncCleanup
	default:
		return SyncIdle
	}
}

// RunPhases lists the phases of a sync run in their fixed order.
func RunPhases() []SyncPhase {
	return []SyncPhase{SyncScanning, SyncMetadataExtraction, SyncValidation, SyncCleanup}
}

// SyncTrigger identifies what started a sync run.
type SyncTrigger string

const (
	SyncTriggerManual    SyncTrigger = "manual"
	SyncTriggerScheduled SyncTrigger = "scheduled"
)

// SyncState is the read model the UI consumes for library sync progress.
type SyncState struct {
	Phase      SyncPhase
	Percentage int // 0-100, monotonic non-decreasing within one run
	Running    bool
	Required   bool // library is stale and a sync has not yet run
}
