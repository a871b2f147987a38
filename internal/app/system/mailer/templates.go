// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// TimeLayout is how interview times appear in email bodies.
const TimeLayout = "Mon Jan 2, 2006 at 3:04 PM MST"

// FormatTime renders t in loc (UTC when loc is nil).
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimeLayout)
}

// message is the shape every notification renders from. Text and HTML bodies
// come from the same data so they never drift apart.
type message struct {
	SiteName    string
	Title       string
	Greeting    string
	Paragraphs  []string
	Items       []string
	ButtonURL   string
	ButtonLabel string
	Footer      string
}

func (m message) email(subject string) Email {
	return Email{
		Subject:  subject,
		TextBody: m.text(),
		HTMLBody: m.html(),
	}
}

func (m message) text() string {
	var buf bytes.Buffer
	if m.Greeting != "" {
		buf.WriteString(m.Greeting + "\n\n")
	}
	for _, p := range m.Paragraphs {
		buf.WriteString(p + "\n\n")
	}
	for _, it := range m.Items {
		buf.WriteString("  - " + it + "\n")
	}
	if len(m.Items) > 0 {
		buf.WriteString("\n")
	}
	if m.ButtonURL != "" {
		buf.WriteString(fmt.Sprintf("%s: %s\n\n", m.ButtonLabel, m.ButtonURL))
	}
	if m.Footer != "" {
		buf.WriteString(m.Footer + "\n")
	}
	return buf.String()
}

var layout = template.Must(template.New("layout").Parse(layoutHTML))

func (m message) html() string {
	var buf bytes.Buffer
	_ = layout.Execute(&buf, m)
	return buf.String()
}

// Participant identifies a person in a notification.
type Participant struct {
	Name     string
	Email    string
	Location *time.Location
}

func (p Participant) greeting() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return "Hi " + n + ","
	}
	return "Hi,"
}

// InterviewData describes one pair from the recipient's point of view.
type InterviewData struct {
	SiteName    string
	Recipient   Participant
	Counterpart Participant
	Role        string // recipient's side: interviewer or interviewee
	EventName   string
	When        time.Time
	MeetingLink string
	PairURL     string
}

// ProposalData is sent to the counterpart when new candidate times arrive.
type ProposalData struct {
	InterviewData
	Candidates []time.Time
	Common     *time.Time
}

// BuildProposalEmail tells the counterpart which times were proposed.
func BuildProposalEmail(d ProposalData) Email {
	loc := d.Recipient.Location
	items := make([]string, 0, len(d.Candidates))
	for _, c := range d.Candidates {
		items = append(items, FormatTime(c, loc))
	}
	paras := []string{
		fmt.Sprintf("%s proposed %d time(s) for your %s interview in %s.",
			nameOr(d.Counterpart.Name, "Your partner"), len(d.Candidates), d.Role, d.EventName),
	}
	if d.Common != nil {
		paras = append(paras, fmt.Sprintf("You both picked %s. Confirm it to lock in the interview.", FormatTime(*d.Common, loc)))
	} else {
		paras = append(paras, "Pick one of these times, or propose your own:")
	}
	return message{
		SiteName:    d.SiteName,
		Title:       "New interview times proposed",
		Greeting:    d.Recipient.greeting(),
		Paragraphs:  paras,
		Items:       items,
		ButtonURL:   d.PairURL,
		ButtonLabel: "Review proposal",
	}.email(fmt.Sprintf("[%s] New times proposed for your interview", d.SiteName))
}

// BuildConfirmationEmail announces the confirmed time.
func BuildConfirmationEmail(d InterviewData) Email {
	paras := []string{
		fmt.Sprintf("Your %s interview with %s in %s is confirmed for %s.",
			d.Role, nameOr(d.Counterpart.Name, "your partner"), d.EventName, FormatTime(d.When, d.Recipient.Location)),
	}
	if d.MeetingLink != "" {
		paras = append(paras, "Meeting link: "+d.MeetingLink)
	} else {
		paras = append(paras, "A meeting link will be sent before the interview starts.")
	}
	return message{
		SiteName:    d.SiteName,
		Title:       "Interview confirmed",
		Greeting:    d.Recipient.greeting(),
		Paragraphs:  paras,
		ButtonURL:   d.PairURL,
		ButtonLabel: "View interview",
		Footer:      "A calendar invite is attached.",
	}.email(fmt.Sprintf("[%s] Interview confirmed: %s", d.SiteName, FormatTime(d.When, d.Recipient.Location)))
}

// BuildMeetingLinkEmail announces a new or changed meeting link.
func BuildMeetingLinkEmail(d InterviewData) Email {
	return message{
		SiteName: d.SiteName,
		Title:    "Meeting link ready",
		Greeting: d.Recipient.greeting(),
		Paragraphs: []string{
			fmt.Sprintf("The meeting link for your interview with %s on %s is ready.",
				nameOr(d.Counterpart.Name, "your partner"), FormatTime(d.When, d.Recipient.Location)),
		},
		ButtonURL:   d.MeetingLink,
		ButtonLabel: "Join meeting",
		Footer:      "A calendar invite is attached.",
	}.email(fmt.Sprintf("[%s] Meeting link for your interview", d.SiteName))
}

// BuildReminderEmail is the one pre-interview reminder.
func BuildReminderEmail(d InterviewData) Email {
	paras := []string{
		fmt.Sprintf("Reminder: your %s interview with %s starts %s.",
			d.Role, nameOr(d.Counterpart.Name, "your partner"), FormatTime(d.When, d.Recipient.Location)),
	}
	label, url := "View interview", d.PairURL
	if d.MeetingLink != "" {
		label, url = "Join meeting", d.MeetingLink
	}
	return message{
		SiteName:    d.SiteName,
		Title:       "Upcoming interview",
		Greeting:    d.Recipient.greeting(),
		Paragraphs:  paras,
		ButtonURL:   url,
		ButtonLabel: label,
	}.email(fmt.Sprintf("[%s] Reminder: interview at %s", d.SiteName, FormatTime(d.When, d.Recipient.Location)))
}

// Assignment is one line of a pairs-generated email.
type Assignment struct {
	Role        string
	Counterpart string
	DefaultSlot time.Time
}

// PairsGeneratedData is sent to each participant when a round is created.
type PairsGeneratedData struct {
	SiteName    string
	Recipient   Participant
	EventName   string
	Round       int
	Assignments []Assignment
	EventURL    string
}

// BuildPairsGeneratedEmail lists the recipient's assignments in a new round.
func BuildPairsGeneratedEmail(d PairsGeneratedData) Email {
	items := make([]string, 0, len(d.Assignments))
	for _, a := range d.Assignments {
		items = append(items, fmt.Sprintf("%s for %s, suggested time %s",
			titleCase(a.Role), nameOr(a.Counterpart, "a participant"), FormatTime(a.DefaultSlot, d.Recipient.Location)))
	}
	return message{
		SiteName: d.SiteName,
		Title:    "Your interview pairs",
		Greeting: d.Recipient.greeting(),
		Paragraphs: []string{
			fmt.Sprintf("Round %d of %s has been paired. Your assignments:", d.Round, d.EventName),
		},
		Items:       items,
		ButtonURL:   d.EventURL,
		ButtonLabel: "Open event",
		Footer:      "Suggested times are a starting point. Propose new ones if they do not work.",
	}.email(fmt.Sprintf("[%s] You have been paired in %s", d.SiteName, d.EventName))
}

func nameOr(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
              <p style="margin: 8px 0 0; font-size: 16px; color: #374151;">{{.Title}}</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{with .Greeting}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">{{.}}</p>{{end}}
              {{range .Paragraphs}}<p style="margin: 0 0 16px; font-size: 15px; color: #374151; line-height: 1.5;">{{.}}</p>{{end}}
              {{if .Items}}<ul style="margin: 0 0 24px; padding-left: 20px; font-size: 15px; color: #1f2937;">
                {{range .Items}}<li style="margin-bottom: 6px;">{{.}}</li>{{end}}
              </ul>{{end}}
              {{if .ButtonURL}}<table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ButtonURL}}" style="display: inline-block; padding: 12px 28px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 500; border-radius: 6px;">{{.ButtonLabel}}</a>
                  </td>
                </tr>
              </table>{{end}}
            </td>
          </tr>
          {{with .Footer}}<tr>
            <td style="padding: 20px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.}}</p>
            </td>
          </tr>{{end}}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
