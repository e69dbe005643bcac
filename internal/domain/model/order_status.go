package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pendente"
	OrderStatusConfirmed OrderStatus = "Confirmado"
	OrderStatusPreparing OrderStatus = "Preparando"
	OrderStatusDelivered OrderStatus = "Entregue"
	OrderStatusCanceled  OrderStatus = "Cancelado"
)

// 遷移表。終端状態（Entregue/Cancelado）からはどこにも行けない。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCanceled},
	OrderStatusPreparing: {OrderStatusDelivered, OrderStatusCanceled},
	OrderStatusDelivered: {},
	OrderStatusCanceled:  {},
}

// 大文字小文字・前後空白は無視して解釈する
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.TrimSpace(s)
	for st := range orderTransitions {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// 遷移表どおりでなければErrIllegalTransition
func (s OrderStatus) ValidateTransition(to OrderStatus) error {
	if !s.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, to)
	}
	return nil
}

func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPreparing,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}
