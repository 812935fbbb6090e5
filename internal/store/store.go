// Package store holds the controller's in-memory view of every region and
// monitoring group, plus the append-only incident log. All state is lost on
// restart; a single readers-writer lock guards every operation and critical
// sections stay narrow so the HTTP handlers and the scheduler can share it.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"watchdog"
)

// RegionState is the lifecycle state of a region.
type RegionState uint8

const (
	RegionInitial RegionState = iota // declared but never reported
	RegionUp
	RegionWarn
	RegionDown
)

func (s RegionState) String() string {
	switch s {
	case RegionInitial:
		return watchdog.StatusInitial
	case RegionUp:
		return watchdog.StatusUp
	case RegionWarn:
		return watchdog.StatusWarn
	case RegionDown:
		return watchdog.StatusDown
	default:
		return "unknown"
	}
}

// GroupState is the lifecycle state of a monitoring group.
type GroupState uint8

const (
	GroupInitial GroupState = iota
	GroupUp
	GroupWarn
	GroupDown
	GroupIncident // latched by the scheduler; sticky while failing
)

func (s GroupState) String() string {
	switch s {
	case GroupInitial:
		return watchdog.StatusInitial
	case GroupUp:
		return watchdog.StatusUp
	case GroupWarn:
		return watchdog.StatusWarn
	case GroupDown:
		return watchdog.StatusDown
	case GroupIncident:
		return watchdog.StatusIncident
	default:
		return "unknown"
	}
}

// RegionStatus is a copied-out snapshot of one region's state.
type RegionStatus struct {
	State     RegionState
	UpdatedAt time.Time
}

// GroupStatus is a copied-out snapshot of one group's state.
type GroupStatus struct {
	State           GroupState
	UpdatedAt       time.Time
	Metrics         []watchdog.Metric
	LastError       string
	LastErrorDetail string
}

type regionEntry struct {
	state     RegionState
	updatedAt time.Time
}

type regionMetadata struct {
	linkedGroups []string
}

type groupEntry struct {
	state           GroupState
	updatedAt       time.Time
	metrics         []watchdog.Metric
	lastError       string
	lastErrorDetail string
}

type incidentRecord struct {
	id        uint32
	message   string
	timestamp time.Time
	err       string
	details   string
}

// Store is the in-memory state store shared by the HTTP service and the
// watchdog scheduler.
type Store struct {
	mu sync.RWMutex

	clock watchdog.Clock

	regions    map[string]regionEntry
	regionMeta map[string]regionMetadata
	groups     map[string]groupEntry

	incidents      []incidentRecord
	lastIncidentID uint32
}

// New creates an empty store. A nil clock falls back to the system clock.
func New(clock watchdog.Clock) *Store {
	if clock == nil {
		clock = watchdog.RealClock{}
	}
	return &Store{
		clock:      clock,
		regions:    make(map[string]regionEntry),
		regionMeta: make(map[string]regionMetadata),
		groups:     make(map[string]groupEntry),
	}
}

func groupKey(region, group string) string {
	return region + "." + group
}

// InitRegion declares a region in the Initial state. The linked group list
// is immutable afterwards; it drives the incident cascade.
func (s *Store) InitRegion(name string, linkedGroups []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.regions[name] = regionEntry{state: RegionInitial, updatedAt: s.clock.Now().UTC()}
	s.regionMeta[name] = regionMetadata{linkedGroups: append([]string(nil), linkedGroups...)}
}

// InitGroup declares a group in the Initial state.
func (s *Store) InitGroup(region, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[groupKey(region, name)] = groupEntry{
		state:     GroupInitial,
		updatedAt: s.clock.Now().UTC(),
	}
}

// GetRegionStatus returns a copy of the region state.
func (s *Store) GetRegionStatus(name string) (RegionStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.regions[name]
	if !ok {
		return RegionStatus{}, false
	}
	return RegionStatus{State: entry.state, UpdatedAt: entry.updatedAt}, true
}

// GetGroupStatus returns a copy of the group state.
func (s *Store) GetGroupStatus(region, name string) (GroupStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.groups[groupKey(region, name)]
	if !ok {
		return GroupStatus{}, false
	}
	return GroupStatus{
		State:           entry.state,
		UpdatedAt:       entry.updatedAt,
		Metrics:         append([]watchdog.Metric(nil), entry.metrics...),
		LastError:       entry.lastError,
		LastErrorDetail: entry.lastErrorDetail,
	}, true
}

// RefreshRegion records a heartbeat for a region: Warn when any group in the
// heartbeat was failing or warning, Up otherwise. The timestamp always moves
// to now — region silence is measured from the last heartbeat.
func (s *Store) RefreshRegion(name string, hasWarnings bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regions[name]; !ok {
		return fmt.Errorf("region %q not initialized", name)
	}

	state := RegionUp
	if hasWarnings {
		state = RegionWarn
	}
	s.regions[name] = regionEntry{state: state, updatedAt: s.clock.Now().UTC()}
	return nil
}

// RefreshGroup records a probe outcome for a group. A Down refresh preserves
// the previous timestamp so the group's failure age keeps advancing toward
// its incident threshold; any other state stamps now. Metrics and the last
// error are replaced in all cases.
func (s *Store) RefreshGroup(region, name string, state GroupState, metrics []watchdog.Metric, lastError, lastErrorDetail string) error {
	key := groupKey(region, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.groups[key]
	if !ok {
		return fmt.Errorf("group %q not initialized", key)
	}

	updatedAt := s.clock.Now().UTC()
	if state == GroupDown {
		updatedAt = entry.updatedAt
	}

	s.groups[key] = groupEntry{
		state:           state,
		updatedAt:       updatedAt,
		metrics:         append([]watchdog.Metric(nil), metrics...),
		lastError:       lastError,
		lastErrorDetail: lastErrorDetail,
	}
	return nil
}

// TriggerRegionIncident latches a region as Down after heartbeat silence and
// cascades every linked group into the Incident state. One incident record
// is appended.
func (s *Store) TriggerRegionIncident(name string, thresholdMS uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.regions[name]
	if !ok {
		return fmt.Errorf("region %q not initialized", name)
	}
	meta, ok := s.regionMeta[name]
	if !ok {
		return fmt.Errorf("region %q metadata not found", name)
	}

	// Keep the stale timestamp: it marks when the region was last heard.
	s.regions[name] = regionEntry{state: RegionDown, updatedAt: entry.updatedAt}

	now := s.clock.Now().UTC()
	for _, group := range meta.linkedGroups {
		s.groups[groupKey(name, group)] = groupEntry{
			state:     GroupIncident,
			updatedAt: now,
		}
	}

	s.appendIncident(
		fmt.Sprintf("Region %s is DOWN", name),
		fmt.Sprintf("No heartbeat received from the region relay within the %dms silence threshold", thresholdMS),
		"",
	)
	return nil
}

// TriggerGroupIncident latches a group as Incident after it stayed Down past
// its threshold. The group keeps its timestamp, metrics and last error; the
// incident record references that error.
func (s *Store) TriggerGroupIncident(region, name string) error {
	key := groupKey(region, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.groups[key]
	if !ok {
		return fmt.Errorf("group %q not initialized", key)
	}

	entry.state = GroupIncident
	s.groups[key] = entry

	s.appendIncident(
		fmt.Sprintf("Group %s is DOWN", key),
		entry.lastError,
		entry.lastErrorDetail,
	)
	return nil
}

// appendIncident assigns the next incident id. Callers must hold the write
// lock.
func (s *Store) appendIncident(message, errMsg, details string) {
	s.incidents = append(s.incidents, incidentRecord{
		id:        s.lastIncidentID,
		message:   message,
		timestamp: s.clock.Now().UTC(),
		err:       errMsg,
		details:   details,
	})
	s.lastIncidentID++
}

// ComputeAnalytics snapshots regions, groups and incidents into the
// serializable summary served by the HTTP API.
func (s *Store) ComputeAnalytics() watchdog.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := watchdog.Summary{
		Regions:   make([]watchdog.RegionSummaryItem, 0, len(s.regions)),
		Groups:    make([]watchdog.GroupSummaryItem, 0, len(s.groups)),
		Incidents: make([]watchdog.IncidentItem, 0, len(s.incidents)),
	}

	for name, entry := range s.regions {
		summary.Regions = append(summary.Regions, watchdog.RegionSummaryItem{
			Name:       name,
			Status:     entry.state.String(),
			LastUpdate: entry.updatedAt.Format(time.RFC3339),
		})
	}
	sort.Slice(summary.Regions, func(i, j int) bool {
		return summary.Regions[i].Name < summary.Regions[j].Name
	})

	for key, entry := range s.groups {
		summary.Groups = append(summary.Groups, watchdog.GroupSummaryItem{
			Name:       key,
			Status:     entry.state.String(),
			LastUpdate: entry.updatedAt.Format(time.RFC3339),
			LastError:  entry.lastError,
		})
	}
	sort.Slice(summary.Groups, func(i, j int) bool {
		return summary.Groups[i].Name < summary.Groups[j].Name
	})

	for _, incident := range s.incidents {
		summary.Incidents = append(summary.Incidents, exportIncident(incident))
	}

	return summary
}

// FindIncidents returns the incident log in append order.
func (s *Store) FindIncidents() []watchdog.IncidentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]watchdog.IncidentItem, 0, len(s.incidents))
	for _, incident := range s.incidents {
		items = append(items, exportIncident(incident))
	}
	return items
}

// GetIncident fetches a single incident by id.
func (s *Store) GetIncident(id uint32) (watchdog.IncidentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, incident := range s.incidents {
		if incident.id == id {
			return exportIncident(incident), true
		}
	}
	return watchdog.IncidentItem{}, false
}

func exportIncident(incident incidentRecord) watchdog.IncidentItem {
	return watchdog.IncidentItem{
		ID:        incident.id,
		Message:   incident.message,
		Timestamp: incident.timestamp.Format(time.RFC3339),
		Error:     incident.err,
		Details:   incident.details,
	}
}

// Label is one exporter label; order is preserved when rendering.
type Label struct {
	Key   string
	Value string
}

// FullMetric is one exporter sample with ordered labels.
type FullMetric struct {
	Name   string
	Labels []Label
	Value  float64
}

// CollectRegionMetrics encodes every region state as a numeric gauge:
// Down=0, Initial=1, Warn=2, Up=3.
func (s *Store) CollectRegionMetrics() []FullMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]FullMetric, 0, len(s.regions))
	for name, entry := range s.regions {
		var encoded float64
		switch entry.state {
		case RegionDown:
			encoded = 0
		case RegionInitial:
			encoded = 1
		case RegionWarn:
			encoded = 2
		case RegionUp:
			encoded = 3
		}
		metrics = append(metrics, FullMetric{
			Name:   "region",
			Labels: []Label{{Key: "region_name", Value: name}},
			Value:  encoded,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Labels[0].Value < metrics[j].Labels[0].Value
	})
	return metrics
}

// CollectTestMetrics exports the last stored sample of every group metric,
// enriched with region and group labels split out of the group key.
func (s *Store) CollectTestMetrics() []FullMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.groups))
	for key := range s.groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var metrics []FullMetric
	for _, key := range keys {
		parts := strings.Split(key, ".")
		region, group := parts[0], parts[len(parts)-1]

		for _, sample := range s.groups[key].metrics {
			labels := []Label{
				{Key: "region", Value: region},
				{Key: "group", Value: group},
			}

			names := make([]string, 0, len(sample.Labels))
			for name := range sample.Labels {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				labels = append(labels, Label{Key: name, Value: sample.Labels[name]})
			}

			metrics = append(metrics, FullMetric{
				Name:   sample.Name,
				Labels: labels,
				Value:  sample.Value,
			})
		}
	}
	return metrics
}
