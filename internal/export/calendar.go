package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"timekeeping-backend/internal/model"
)

// CalendarContentType is the media type of Calendar output.
const CalendarContentType = "text/calendar; charset=utf-8"

const productID = "-//timekeeping//shifts//EN"

// Calendar renders a worker's shifts as an iCalendar feed, one VEVENT per
// shift. An active shift ends at now and is marked tentative.
func Calendar(workerID string, shifts []model.Shift, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Shifts of " + workerID)

	for i := range shifts {
		s := &shifts[i]
		evt := cal.AddEvent(s.ID + "@timekeeping")
		evt.SetDtStampTime(now.UTC())
		evt.SetStartAt(s.ClockIn.UTC())

		if s.ClockOut != nil {
			evt.SetEndAt(s.ClockOut.UTC())
			evt.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			evt.SetEndAt(now.UTC())
			evt.SetStatus(ics.ObjectStatusTentative)
		}

		evt.SetSummary(summary(s))
		evt.SetDescription(fmt.Sprintf("status: %s\nworked minutes: %d\nbreak minutes: %d",
			s.Status, s.WorkedMinutes(), s.TotalBreakMinutes))
	}
	return cal.Serialize()
}

func summary(s *model.Shift) string {
	if s.ProjectID != nil {
		return "Shift: " + *s.ProjectID
	}
	return "Shift"
}
