package employee

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/hitoshi/empdesk/internal/model"
)

// salaryPattern はsalaryカラム NUMERIC(12, 2) に丸めずに収まる10進表記。
// NaN, Inf, 指数表記, 16進表記は受け付けない。
var salaryPattern = regexp.MustCompile(`^[+-]?[0-9]{1,10}(\.[0-9]{1,2})?$`)

// ParseInput はフォーム値をInputへ変換する。
// 数値項目は空欄ならnil、カラムにそのまま保存できない値の場合はINVALID_NUMBERを返す。
func ParseInput(form url.Values) (Input, error) {
	in := Input{
		Name:  form.Get("name"),
		Email: form.Get("email"),
	}

	var err error
	if in.Age, err = parseOptionalInt("age", form.Get("age")); err != nil {
		return Input{}, err
	}
	if in.Salary, err = parseOptionalFloat("salary", form.Get("salary")); err != nil {
		return Input{}, err
	}
	if in.Experience, err = parseOptionalInt("experience", form.Get("experience")); err != nil {
		return Input{}, err
	}
	return in, nil
}

// ParseID はURLパスのIDを解釈する。正の整数でなければINVALID_EMPLOYEE_IDを返す。
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidEmployeeIDError(raw)
	}
	return id, nil
}

// parseOptionalInt はINTEGERカラムの範囲 (32bit) に収まる整数を解釈する。
func parseOptionalInt(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, model.NewInvalidNumberError(field, raw)
	}
	v := int(n)
	return &v, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !salaryPattern.MatchString(raw) {
		return nil, model.NewInvalidNumberError(field, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, model.NewInvalidNumberError(field, raw)
	}
	return &v, nil
}
