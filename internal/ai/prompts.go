package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/thomas-vilte/changelens/internal/models"
)

// PromptData holds the parameters for template rendering
type PromptData struct {
	Category   string
	Definition string
	Signals    string
	Diff       string
	Project    string
	Branch     string
	Files      string
	Scope      string
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

const (
	classifierPromptTemplateEN = `# Task
  You are a strict code reviewer. Decide whether the change below is a **{{.Category}}**.

  # Definition
  {{.Definition}}

  # Signals that point to {{.Category}}
  {{.Signals}}

  # Context
  - Project: {{if .Project}}{{.Project}}{{else}}unknown{{end}}
  - Branch: {{if .Branch}}{{.Branch}}{{else}}unknown{{end}}
  - Scope: {{.Scope}}
{{- if .Files}}
  - Files:
{{.Files}}
{{- end}}

  # Change
  ` + "```diff" + `
{{.Diff}}
  ` + "```" + `

  # Rules
  1. Judge only what is visible in the change. Do not guess intent that is not in the code.
  2. Answer about {{.Category}} only; other categories are judged separately.
  3. confidence is a number between 0 and 1 describing how sure you are of the verdict.
  4. Output raw JSON only, no markdown.

  # Output
  {"reasoning": "<one or two sentences>", "verdict": true|false, "confidence": <0..1>}`

	classifierPromptTemplateES = `# Tarea
  Sos un revisor de código estricto. Decidí si el cambio de abajo es un **{{.Category}}**.

  # Definición
  {{.Definition}}

  # Señales de {{.Category}}
  {{.Signals}}

  # Contexto
  - Proyecto: {{if .Project}}{{.Project}}{{else}}desconocido{{end}}
  - Rama: {{if .Branch}}{{.Branch}}{{else}}desconocida{{end}}
  - Alcance: {{.Scope}}
{{- if .Files}}
  - Archivos:
{{.Files}}
{{- end}}

  # Cambio
  ` + "```diff" + `
{{.Diff}}
  ` + "```" + `

  # Reglas
  1. Juzgá solo lo que se ve en el cambio. No inventes intenciones que no estén en el código.
  2. Respondé solo sobre {{.Category}}; las otras categorías se evalúan por separado.
  3. confidence es un número entre 0 y 1 que indica qué tan seguro estás del veredicto.
  4. Devolvé solo JSON, sin markdown. Escribí reasoning en español.

  # Salida
  {"reasoning": "<una o dos oraciones>", "verdict": true|false, "confidence": <0..1>}`
)

type categoryGuide struct {
	definition string
	signals    []string
}

var categoryGuidesEN = map[models.Category]categoryGuide{
	models.CategoryBugFix: {
		definition: "A change that corrects behavior that was wrong: crashes, wrong results, missing error handling, off-by-one errors, races.",
		signals: []string{
			"conditions or boundaries corrected",
			"nil/empty checks or error handling added where a failure was possible",
			"tests added that reproduce a failure",
		},
	},
	models.CategoryFeature: {
		definition: "A change that adds new user-visible capability: new commands, endpoints, options, screens or behaviors.",
		signals: []string{
			"new exported functions, types, flags or routes",
			"new configuration options",
			"new files implementing a capability that did not exist",
		},
	},
	models.CategoryRefactor: {
		definition: "A change that restructures code without changing its observable behavior.",
		signals: []string{
			"renames, moves or extractions of functions and types",
			"duplicated code consolidated",
			"same inputs produce the same outputs before and after",
		},
	},
}

var categoryGuidesES = map[models.Category]categoryGuide{
	models.CategoryBugFix: {
		definition: "Un cambio que corrige un comportamiento incorrecto: caídas, resultados erróneos, manejo de errores faltante, errores de borde, condiciones de carrera.",
		signals: []string{
			"condiciones o límites corregidos",
			"validaciones de nil/vacío o manejo de errores donde podía fallar",
			"tests que reproducen una falla",
		},
	},
	models.CategoryFeature: {
		definition: "Un cambio que agrega una capacidad nueva visible para el usuario: comandos, endpoints, opciones o comportamientos nuevos.",
		signals: []string{
			"funciones, tipos, flags o rutas exportadas nuevas",
			"opciones de configuración nuevas",
			"archivos nuevos que implementan algo que no existía",
		},
	},
	models.CategoryRefactor: {
		definition: "Un cambio que reestructura el código sin cambiar su comportamiento observable.",
		signals: []string{
			"renombres, movimientos o extracciones de funciones y tipos",
			"código duplicado consolidado",
			"las mismas entradas producen las mismas salidas antes y después",
		},
	},
}

// GetClassifierPromptTemplate returns the appropriate template based on the language
func GetClassifierPromptTemplate(lang string) string {
	switch lang {
	case "es":
		return classifierPromptTemplateES
	default:
		return classifierPromptTemplateEN
	}
}

// NewPromptData fills the template parameters for one classifier call.
func NewPromptData(lang string, category models.Category, cleaned string, cc models.ClassificationContext) PromptData {
	guides := categoryGuidesEN
	if lang == "es" {
		guides = categoryGuidesES
	}

	guide, ok := guides[category]
	if !ok {
		guide = categoryGuide{definition: string(category)}
	}

	return PromptData{
		Category:   string(category),
		Definition: guide.definition,
		Signals:    bulletList(guide.signals, "  - "),
		Diff:       cleaned,
		Project:    cc.Project,
		Branch:     cc.Branch,
		Files:      bulletList(cc.Files, "    - "),
		Scope:      string(cc.Scope),
	}
}

// BuildClassifierPrompt renders the full prompt for one category.
func BuildClassifierPrompt(lang string, category models.Category, cleaned string, cc models.ClassificationContext) (string, error) {
	data := NewPromptData(lang, category, cleaned, cc)
	return RenderPrompt("classifierPrompt", GetClassifierPromptTemplate(lang), data)
}

func bulletList(items []string, prefix string) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = prefix + item
	}
	return strings.Join(lines, "\n")
}
