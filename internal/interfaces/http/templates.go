package http

import "html/template"

const layoutHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="referrer" content="no-referrer">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; color: #222; }
table { border-collapse: collapse; width: 100%; }
td, th { padding: .25rem .5rem; text-align: left; border-bottom: 1px solid #ddd; }
td.amount { text-align: right; }
.notice { padding: .75rem; background: #f4f4f4; border-left: 4px solid #888; }
</style>
</head>
<body>
`

const layoutFoot = `</body>
</html>
`

// decisionTemplates are the pages behind the emailed decision link
var decisionTemplates = template.Must(template.New("decide_form").Parse(layoutHead + `
<h1>{{.Title}}</h1>
<p>Submitted by {{.Requester}} on {{.SubmittedAt}}.</p>
<table>
{{range .Summary}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
<h2>Costs</h2>
<table>
{{range .Categories}}<tr><td>{{.Label}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}<tr><th>Total</th><td class="amount"><strong>{{.Total}}</strong></td></tr>
<tr><td>Prepaid</td><td class="amount">{{.PrepaidTotal}}</td></tr>
<tr><td>Reimbursed</td><td class="amount">{{.ReimbursementTotal}}</td></tr>
</table>
<h2>Decision</h2>
<form method="post" action="/decide">
<input type="hidden" name="requestId" value="{{.RequestID}}">
<input type="hidden" name="token" value="{{.Token}}">
<p>
<label><input type="radio" name="decision" value="accepted" required> Accept</label>
<label><input type="radio" name="decision" value="sent_back"> Send back</label>
<label><input type="radio" name="decision" value="rejected"> Reject</label>
</p>
<p><label for="comments">Comments (required to send back or reject)</label><br>
<textarea id="comments" name="comments" rows="4" cols="60"></textarea></p>
<p><button type="submit">Submit decision</button></p>
</form>
` + layoutFoot))

func init() {
	template.Must(decisionTemplates.New("decide_result").Parse(layoutHead + `
<h1>{{.Title}}</h1>
<p class="notice">{{.Message}}</p>
{{if .Comments}}<p>Comments: {{.Comments}}</p>{{end}}
` + layoutFoot))
}
