// Package models defines dialog state structures for TripWeaver commands.
package models

// Command identifies a multi-step dialog command.
type Command string

// Step identifies a single unit of expected input within a command's flow.
type Step string

// DataKey is a key under which a validated step value is collected.
type DataKey string

// Multi-step commands.
const (
	CommandPlanTrip       Command = "PLAN_TRIP"
	CommandAddPoint       Command = "ADD_POINT"
	CommandAddRoute       Command = "ADD_ROUTE"
	CommandFinishPlanning Command = "FINISH_PLANNING"
	CommandAddNote        Command = "ADD_NOTE"
	CommandMarkPoint      Command = "MARK_POINT"
	CommandRateFinished   Command = "RATE_FINISHED"
	CommandDeletePlanned  Command = "DELETE_PLANNED"
	CommandSetOngoing     Command = "SET_ONGOING"
)

// Dialog steps.
const (
	StepName      Step = "WAITING_NAME"
	StepStartDate Step = "WAITING_START_DATE"
	StepEndDate   Step = "WAITING_END_DATE"
	StepTripName  Step = "WAITING_TRIP_NAME"
	StepPointName Step = "WAITING_POINT_NAME"
	StepLatitude  Step = "WAITING_LATITUDE"
	StepLongitude Step = "WAITING_LONGITUDE"
	StepRouteDate Step = "WAITING_ROUTE_DATE"
	StepNote      Step = "WAITING_NOTE"
	StepRating    Step = "WAITING_RATING"
	// StepLocation is satisfied by a location event, not by a text reply.
	StepLocation Step = "WAITING_LOCATION"
)

// Collected-field keys.
const (
	DataKeyName      DataKey = "name"
	DataKeyStartDate DataKey = "startDate"
	DataKeyEndDate   DataKey = "endDate"
	DataKeyTripName  DataKey = "tripName"
	DataKeyPointName DataKey = "pointName"
	DataKeyLatitude  DataKey = "latitude"
	DataKeyLongitude DataKey = "longitude"
	DataKeyRouteDate DataKey = "routeDate"
	DataKeyNote      DataKey = "note"
	DataKeyRating    DataKey = "rating"
)

// DialogSession is the ephemeral per-chat record of an in-progress multi-step
// command. It is never persisted; at most one exists per chat at a time.
type DialogSession struct {
	ChatID      int64
	Command     Command
	CurrentStep Step
	Data        map[DataKey]string
}

// Clone returns a deep copy so the registry lock need not be held across I/O.
func (s *DialogSession) Clone() *DialogSession {
	if s == nil {
		return nil
	}
	data := make(map[DataKey]string, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return &DialogSession{
		ChatID:      s.ChatID,
		Command:     s.Command,
		CurrentStep: s.CurrentStep,
		Data:        data,
	}
}
