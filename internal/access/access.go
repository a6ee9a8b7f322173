// Package access решает, может ли вызывающий выполнить операцию над сущностью.
// Все решения принимаются по таблице правил в rules.go.
package access

import (
	"context"

	"procurement/models"
)

// Caller личность из проверенного токена
type Caller struct {
	ID    int64
	Email string
	Role  models.Role
}

func (c Caller) Is(role models.Role) bool {
	return c.Role == role
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// Subject цель операции вместе с разрешённой цепочкой владения.
// Отсутствующее звено остаётся nil, и правила владения его не пропускают.
type Subject struct {
	Project *models.Project
	Rfq     *models.Rfq
	Quote   *models.Quote
	// TargetUserID пользователь из пути или тела: vendor_id, user_id, id профиля
	TargetUserID int64
	// HasQuoted вызывающий вендор подавал котировку на Rfq
	HasQuoted bool
}

// DeniedError отказ в доступе, Reason можно показывать клиенту
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}
