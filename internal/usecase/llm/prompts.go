package llm

import (
	"strings"
	"text/template"
)

var commentTemplate = template.Must(template.New("comment").Parse(`You are a log comment extender.
Explain what happened for each log message and choose the category it belongs to.
Explanation contains the following information:
1. When it happened
2. What happened
3. Where it happened
4. What category it belongs to
If the log message contains error information, please also include the following information:
5. Why it happened
6. How it happened
Please write the explanation in a simple one sentence and choose the category from the following list.
Generate the comment in the selected language.
If the log message does not belong to any category, please choose "{{.Other}}".
{{- if not .Categories}}
The category list is empty, so choose a short category label yourself or "{{.Other}}".
{{- end}}
Answer with a JSON object of the form {"comment": "...", "keyword": "..."}.
<language>{{.Language}}</language>
<category_list>{{.Categories}}</category_list>
<log_message>{{.Message}}</log_message>
`))

var troubleshootingTemplate = template.Must(template.New("troubleshooting").Parse(`You are a troubleshooting content generator.
Generate the content for the troubleshooting and make a title for the content.
The content should be in the following format:
1. What happened
2. Why it happened
3. How to fix it
Write the title and content in {{.Language}}.
Answer with a JSON object of the form {"title": "...", "content": "..."}.
<user_query>{{.Query}}</user_query>
<log_contents>{{.Logs}}</log_contents>
`))

type commentData struct {
	Language   string
	Categories string
	Other      string
	Message    string
}

type troubleshootingData struct {
	Language string
	Query    string
	Logs     string
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
