package service

import (
	"context"
	"fmt"
	"strings"

	"lidar_maintenance/internal/logger"
	"lidar_maintenance/internal/models"
	"lidar_maintenance/internal/notify"
)

// Notifier composes and schedules the post-visit mail.
type Notifier struct {
	mailer notify.Mailer
	cc     []string
	log    *logger.Logger
}

func NewNotifier(mailer notify.Mailer, cc []string, log *logger.Logger) *Notifier {
	return &Notifier{mailer: mailer, cc: cc, log: log}
}

// Notify validates the plan's recipients, builds the message body and hands
// it to the mailer. A zero SendAt delivers immediately.
func (n *Notifier) Notify(ctx context.Context, rec *models.MaintenanceRecord, incidents []models.Incident,
	plan *models.NotificationPlan, attachments []notify.Attachment) error {

	if len(plan.Recipients) == 0 {
		return &models.ValidationError{Field: "recipients", Reason: "no mail addresses in the report"}
	}
	for _, addr := range plan.Recipients {
		if !strings.Contains(addr, "@") || !strings.Contains(addr, ".") {
			return &models.ValidationError{Field: "recipients", Value: addr, Reason: "not a mail address"}
		}
	}

	msg := notify.Message{
		To:          plan.Recipients,
		CC:          n.cc,
		Subject:     fmt.Sprintf("Información para el próximo mantenimiento del equipo %s", rec.DeviceID),
		Body:        buildBody(rec, incidents),
		SendAt:      plan.SendAt,
		Attachments: attachments,
	}
	if err := n.mailer.Schedule(ctx, msg); err != nil {
		return err
	}

	when := "now"
	if !plan.SendAt.IsZero() {
		when = plan.SendAt.Format("02-01-2006 15:04")
	}
	n.log.Infof("notification for %s scheduled (%d recipients, send %s)", rec.DeviceID, len(plan.Recipients), when)
	return nil
}

func buildBody(rec *models.MaintenanceRecord, incidents []models.Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Buenas,\n\n")
	fmt.Fprintf(&b, "El %s se realizó el mantenimiento del LIDAR %s en %s.\n",
		rec.VisitDate.Format("02-01-2006"), rec.DeviceID, rec.Location)
	fmt.Fprintf(&b, "Operarios DEKRA: %s. Operarios externos: %s.\n\n",
		nameListOrNA(rec.InternalOperators), nameListOrNA(rec.ExternalOperators))

	if errs := models.ErrorTags(incidents); len(errs) > 0 {
		b.WriteString("Por favor, ten en cuenta las siguientes incidencias para el próximo mantenimiento:\n")
		for _, inc := range incidents {
			if line := describeIncident(inc); line != "" {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No se detectaron incidencias durante la visita.\n\n")
	}

	b.WriteString("Se adjuntan el informe de mantenimiento y el resumen de la visita.\n\nUn saludo.\n")
	return b.String()
}

// describeIncident renders the mail line for an error incident. Informational
// incidents return the empty string.
func describeIncident(inc models.Incident) string {
	if !inc.Tag().IsError() {
		return ""
	}
	switch v := inc.(type) {
	case models.StatusIncident:
		if v.Code == models.TagErrorEFOYOffline {
			return "El EFOY no está conectado a la red."
		}
		return "El EFOY no funciona correctamente."
	case models.FilterIncident:
		if v.Code == models.TagErrorFilterDiscarded {
			return fmt.Sprintf("Se sustituyó el filtro y se desecharon %v. Quedan %v de repuesto.", v.Discarded, v.Remaining)
		}
		return fmt.Sprintf("Se sustituyó el filtro. Quedan %v de repuesto.", v.Remaining)
	case models.BrushIncident:
		return fmt.Sprintf("La escobilla no funciona. Quedan %v de repuesto.", v.Remaining)
	case models.PumpIncident:
		return fmt.Sprintf("La bomba de agua no funciona. Quedan %v de repuesto.", v.Remaining)
	case models.BatteryIncident:
		return "Se cambiaron las baterías del equipo."
	case models.ExtinguisherIncident:
		if v.Code == models.TagErrorExtinguisherExpired {
			return fmt.Sprintf("El extintor está caducado (caducidad %s).", v.Expiry.Format("02-01-2006"))
		}
		return fmt.Sprintf("El extintor caduca pronto (%s).", v.Expiry.Format("02-01-2006"))
	case models.DataDownloadIncident:
		return "No se descargaron los datos del equipo."
	case models.SensorIncident:
		return fmt.Sprintf("Se cambiaron %d sensores.", len(v.Changes))
	default:
		return string(inc.Tag())
	}
}
