// Package view は埋め込みHTMLテンプレートによるページ描画を提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ページ名。
const (
	PageIndex     = "index"
	PageRegister  = "register"
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageUpdate    = "update"
	PageError     = "error"
)

var pageNames = []string{PageIndex, PageRegister, PageLogin, PageDashboard, PageUpdate, PageError}

// Data はテンプレートに渡す値。
// 全ページ共通で flashes と csrfToken を受け取る。
type Data map[string]any

// Renderer はページごとにlayoutと組み合わせたテンプレートを保持する。
// 起動時に一度だけ構築し、以降は読み取り専用。
type Renderer struct {
	pages map[string]*template.Template
}

// New は全ページのテンプレートを解析してRendererを生成する。
func New() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcMap()).ParseFS(
			templatesFS, "templates/layout.html", "templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render は指定ページを描画する。
// 描画が完了してからヘッダーを書き込むため、テンプレートエラー時は何も送信しない。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Data) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"optInt":   formatOptionalInt,
		"optFloat": formatOptionalFloat,
	}
}

// formatOptionalInt はNULLの数値項目を空文字として表示する。
func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
