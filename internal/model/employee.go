package model

// Employee は従業員レコードを表す。
// 数値項目はフォームで空欄のまま送られることがあるため、NULLを許容するポインタで保持する。
type Employee struct {
	ID         int64
	Name       string
	Email      string
	Age        *int
	Salary     *float64
	Experience *int
}
