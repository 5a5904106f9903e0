package assistant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/autocare/dates"
	"github.com/aschepis/backscratcher/autocare/screens"
)

// WelcomeMessage is shown when a conversation opens.
const WelcomeMessage = "¡Hola! 👋 Soy tu asistente inteligente.\n\n" +
	"Leo tus pantallas en tiempo real, puedo responder por **fechas** y revisar **vencimientos**.\n\n" +
	"Dime en qué te ayudo."

const genericReply = "No pude revisar tus datos en este momento. ¿Puedes intentarlo de nuevo?"

const helpReply = "Puedo:\n" +
	"• Resumir tu app\n" +
	"• Responder por fecha (hoy/mañana/DD/MM/\"15 de octubre\")\n" +
	"• Decirte vencimientos (SOAT/Técnico/Pico y Placa)\n" +
	"• Ver tareas preventivas por día\n" +
	"• Analizar General, Emergency, Profile y Route\n\n" +
	"¿Qué necesitas?"

const clarifyReply = "Ya te he proporcionado esta información recientemente. " +
	"¿Hay algo específico en lo que pueda ayudarte? Por ejemplo, puedes preguntarme sobre:\n" +
	"• Vencimientos de documentos\n" +
	"• Citas para una fecha específica\n" +
	"• Tareas pendientes\n" +
	"• Contactos de emergencia"

const incompleteProfileReply = "Perfil incompleto: no encuentro documentos. Sube licencia, SOAT y tecnomecánica."

var (
	documentIntentRe = regexp.MustCompile(`vence|vencen|vencimiento|soat|tecnomec|técnico|tecnico|pico\s*y\s*placa`)
	greetingIntentRe = regexp.MustCompile(`(^|[\s¡¿,.!?])(hola|buenas|saludos)([\s,.!?]|$)`)
	helpIntentRe     = regexp.MustCompile(`ayuda|qué puedes|que puedes|cómo me puedes ayudar|como me puedes ayudar`)
	statusIntentRe   = regexp.MustCompile(`resumen|estado|cómo va|como va`)
)

type screenKeyword struct {
	word   string
	screen screens.ID
}

// screenKeywords maps words in an utterance to screens. Order matters: the
// first screen found wins when a date narrows the question.
var screenKeywords = []screenKeyword{
	{"daily", screens.Daily},
	{"agenda", screens.Agenda},
	{"calendario", screens.Agenda},
	{"general", screens.General},
	{"preventivo", screens.Preventive},
	{"preventiva", screens.Preventive},
	{"emergencia", screens.Emergency},
	{"profile", screens.Profile},
	{"perfil", screens.Profile},
	{"ruta", screens.Route},
	{"rutas", screens.Route},
}

// compose classifies the utterance and builds the reply. mu must be held.
func (s *Session) compose(utterance string) string {
	text := strings.TrimSpace(utterance)
	low := strings.ToLower(text)
	now := s.now()
	an := NewAnalyzer(s.state, now, s.warningDays)

	if documentIntentRe.MatchString(low) {
		return s.record(s.documentStatus(an))
	}

	mentioned := mentionedScreens(low)
	if date, ok := dates.Parse(low, now); ok && len(mentioned) > 0 {
		return s.record(s.forDate(mentioned[0], date))
	}

	if len(mentioned) > 0 {
		blocks := lo.Map(mentioned, func(id screens.ID, _ int) string {
			a := an.Analyze(id)
			blk := fmt.Sprintf("📋 %s: %s", id, a.Details)
			if len(a.Bullets) > 0 {
				blk += "\n" + bullets(a.Bullets)
			}
			return blk
		})
		return s.record(strings.Join(blocks, "\n\n"))
	}

	switch {
	case greetingIntentRe.MatchString(low):
		return s.record("¡Hola! 👋 Estoy conectado a tus pantallas.\n\n" + s.contextSummary(an) + "\n\n¿Sobre qué quieres saber más?")
	case helpIntentRe.MatchString(low):
		return s.record(helpReply)
	case statusIntentRe.MatchString(low):
		return s.record(s.contextSummary(an))
	}

	fallback := fmt.Sprintf("Entiendo: \"%s\".\n\n%s\n\n"+
		"También puedes preguntar por fecha y pantalla, p. ej.: \"Daily 15/10/2025\" o \"Agenda del 3 de noviembre\".",
		text, s.contextSummary(an))
	if s.recent.similarToAny(fallback) {
		// not recorded, so the next fallback can be answered in full again
		return clarifyReply
	}
	return s.record(fallback)
}

func (s *Session) record(reply string) string {
	s.recent.add(reply)
	return reply
}

// mentionedScreens returns the screens named in low, in keyword order and
// without repeats.
func mentionedScreens(low string) []screens.ID {
	found := lo.FilterMap(screenKeywords, func(k screenKeyword, _ int) (screens.ID, bool) {
		return k.screen, strings.Contains(low, k.word)
	})
	return lo.Uniq(found)
}

// forDate lists what a screen holds for a single day.
func (s *Session) forDate(id screens.ID, date time.Time) string {
	day := dates.FormatLong(date)

	switch id {
	case screens.Daily, screens.Agenda:
		var apps []screens.Appointment
		if id == screens.Daily && s.state.Daily != nil {
			apps = s.state.Daily.Appointments
		}
		if id == screens.Agenda && s.state.Agenda != nil {
			apps = s.state.Agenda.Appointments
		}
		hits := lo.Filter(apps, func(ap screens.Appointment, _ int) bool {
			return ap.Date.Set() && dates.SameDay(date, ap.Date.Time)
		})
		if len(hits) == 0 {
			return fmt.Sprintf("No encuentro eventos en %s para %s.", id, day)
		}
		lines := lo.Map(hits, func(ap screens.Appointment, _ int) string {
			if ap.Description != "" {
				return fmt.Sprintf("• %s — %s", ap.Title, ap.Description)
			}
			return "• " + ap.Title
		})
		return fmt.Sprintf("%s — %s:\n%s", id, day, strings.Join(lines, "\n"))

	case screens.Preventive:
		var tasks []screens.Task
		if s.state.Preventive != nil {
			tasks = s.state.Preventive.Tasks
		}
		hits := lo.Filter(tasks, func(t screens.Task, _ int) bool {
			return t.DueDate.Set() && dates.SameDay(date, t.DueDate.Time)
		})
		if len(hits) == 0 {
			return fmt.Sprintf("Sin tareas preventivas que venzan el %s.", day)
		}
		return fmt.Sprintf("Tareas preventivas con vencimiento %s:\n%s", day,
			bullets(lo.Map(hits, func(t screens.Task, _ int) string { return t.Description })))

	case screens.Profile:
		exp := expiryOf(s.state.Profile)
		var matches []string
		if exp.SOAT.Set() && dates.SameDay(date, exp.SOAT.Time) {
			matches = append(matches, "SOAT")
		}
		if exp.Tecnico.Set() && dates.SameDay(date, exp.Tecnico.Time) {
			matches = append(matches, "Técnico Mecánica")
		}
		if len(matches) == 0 {
			return fmt.Sprintf("No veo vencimientos de Perfil para %s.", day)
		}
		return fmt.Sprintf("Vencimientos en Perfil para %s:\n%s", day, bullets(matches))
	}

	return fmt.Sprintf("Para %s no tengo datos filtrables por fecha (%s).", id, day)
}

// documentStatus reports document expirations, warning about those inside
// the warning window.
func (s *Session) documentStatus(an *Analyzer) string {
	st := s.state.Profile
	if st == nil || (len(st.Documents) == 0 && st.DocumentsExpiry == nil) {
		return incompleteProfileReply
	}
	exp := expiryOf(st)
	soatDays, tecDays := an.documentDays(exp)

	var warnings strings.Builder
	if within(soatDays, s.warningDays) {
		fmt.Fprintf(&warnings, "\n⚠️ SOAT vence en %d días", *soatDays)
	}
	if within(tecDays, s.warningDays) {
		fmt.Fprintf(&warnings, "\n⚠️ Técnico Mecánica vence en %d días", *tecDays)
	}

	docs := strings.Join([]string{
		fmt.Sprintf("SOAT: %s%s", formatDate(exp.SOAT), daysSuffix(soatDays)),
		fmt.Sprintf("Técnico Mecánica: %s%s", formatDate(exp.Tecnico), daysSuffix(tecDays)),
		"Pico y Placa: " + orNA(exp.PicoPlacaDay),
	}, "\n")

	return fmt.Sprintf("Perfil:\n%s\n%s%s\n¿Abrimos \"Profile\" para actualizar?",
		bullets([]string{
			fmt.Sprintf("Documentos: %d", len(st.Documents)),
			"Estado docs: " + orNA(st.DocumentsStatus),
		}),
		docs, warnings.String())
}

// contextSummary renders one line per screen, an attention count and the
// latest actions.
func (s *Session) contextSummary(an *Analyzer) string {
	var b strings.Builder
	b.WriteString("Resumen de tu aplicación:")

	alerts := 0
	for _, id := range screens.All {
		a := an.Analyze(id)
		fmt.Fprintf(&b, "\n• %s: %s — %s", id, a.Status, a.Details)
		if a.Status.NeedsAttention() {
			alerts++
		}
	}

	if alerts > 0 {
		fmt.Fprintf(&b, "\n\n⚠️ Tienes %d área(s) que requieren atención.", alerts)
	} else {
		b.WriteString("\n\n✅ Todo en orden.")
	}

	if n := len(s.history); n > 0 {
		b.WriteString("\n\nAcciones recientes:")
		for i := n - 1; i >= 0 && i >= n-3; i-- {
			b.WriteString("\n• " + s.history[i].Action)
		}
	}
	return b.String()
}

func bullets(lines []string) string {
	return strings.Join(lo.FilterMap(lines, func(l string, _ int) (string, bool) {
		return "• " + l, l != ""
	}), "\n")
}
