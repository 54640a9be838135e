// Package dialog implements the per-chat dialog state machine that turns a
// sequence of free-text messages into a validated, structured command.
package dialog

import "github.com/tripweaver/tripweaver/internal/models"

// initialSteps maps each command to the step its dialog starts at.
var initialSteps = map[models.Command]models.Step{
	models.CommandPlanTrip:       models.StepName,
	models.CommandAddPoint:       models.StepTripName,
	models.CommandAddRoute:       models.StepTripName,
	models.CommandFinishPlanning: models.StepTripName,
	models.CommandAddNote:        models.StepTripName,
	models.CommandMarkPoint:      models.StepTripName,
	models.CommandRateFinished:   models.StepTripName,
	models.CommandDeletePlanned:  models.StepTripName,
	models.CommandSetOngoing:     models.StepTripName,
}

// transitions is the declarative (command, current step) -> next step table.
// A step absent from its command's map is terminal: the command executes there.
var transitions = map[models.Command]map[models.Step]models.Step{
	models.CommandPlanTrip: {
		models.StepName:      models.StepStartDate,
		models.StepStartDate: models.StepEndDate,
	},
	models.CommandAddPoint: {
		models.StepTripName:  models.StepPointName,
		models.StepPointName: models.StepLatitude,
		models.StepLatitude:  models.StepLongitude,
	},
	models.CommandAddRoute: {
		models.StepTripName:  models.StepPointName,
		models.StepPointName: models.StepRouteDate,
	},
	models.CommandFinishPlanning: {},
	models.CommandAddNote: {
		models.StepTripName: models.StepNote,
	},
	models.CommandMarkPoint: {
		models.StepTripName: models.StepPointName,
	},
	models.CommandRateFinished: {
		models.StepTripName: models.StepRating,
	},
	models.CommandDeletePlanned: {},
	models.CommandSetOngoing: {
		models.StepTripName: models.StepLocation,
	},
}

// stepFields maps each step to the key its validated value is collected under.
var stepFields = map[models.Step]models.DataKey{
	models.StepName:      models.DataKeyName,
	models.StepStartDate: models.DataKeyStartDate,
	models.StepEndDate:   models.DataKeyEndDate,
	models.StepTripName:  models.DataKeyTripName,
	models.StepPointName: models.DataKeyPointName,
	models.StepLatitude:  models.DataKeyLatitude,
	models.StepLongitude: models.DataKeyLongitude,
	models.StepRouteDate: models.DataKeyRouteDate,
	models.StepNote:      models.DataKeyNote,
	models.StepRating:    models.DataKeyRating,
}

// stepPrompts holds the question shown to the user when a step is entered.
var stepPrompts = map[models.Step]string{
	models.StepName:      "What would you like to call the trip? (Latin letters, digits and spaces only)",
	models.StepStartDate: "When do you plan to start the trip? (format: YYYY-MM-DD)",
	models.StepEndDate:   "When do you plan to finish the trip? (format: YYYY-MM-DD)",
	models.StepTripName:  "Enter the trip name:",
	models.StepPointName: "Enter the point name (Latin letters, digits and spaces only):",
	models.StepLatitude:  "Enter the latitude (-90 to 90):",
	models.StepLongitude: "Enter the longitude (-180 to 180):",
	models.StepRouteDate: "Enter the route date (format: YYYY-MM-DD):",
	models.StepNote:      "Enter the note:",
	models.StepRating:    "Enter a rating (1 to 5):",
	models.StepLocation:  "Share your location using the 'Send location' button.",
}

// InitialStep returns the step a command's dialog starts at.
func InitialStep(cmd models.Command) (models.Step, bool) {
	step, ok := initialSteps[cmd]
	return step, ok
}

// NextStep returns the step following current for cmd. ok is false when
// current is terminal for cmd.
func NextStep(cmd models.Command, current models.Step) (models.Step, bool) {
	next, ok := transitions[cmd][current]
	return next, ok
}

// FieldKey returns the collected-field key for a step.
func FieldKey(step models.Step) models.DataKey {
	return stepFields[step]
}

// Prompt returns the prompt text for a step.
func Prompt(step models.Step) string {
	return stepPrompts[step]
}
