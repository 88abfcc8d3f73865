package orders

type Status string

const (
	StatusAwaitingPayment     Status = "aguardando_pagamento"
	StatusPaid                Status = "pago"
	StatusOrderedFromSupplier Status = "comprado_fornecedor"
	StatusShipped             Status = "enviado"
	StatusDelivered           Status = "entregue"
	StatusCancelled           Status = "cancelado"
)

// KnownStatuses is the set the admin API accepts. Any transition between
// them is allowed; the operator drives the lifecycle by hand.
var KnownStatuses = []Status{
	StatusAwaitingPayment,
	StatusPaid,
	StatusOrderedFromSupplier,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

func (s Status) Known() bool {
	for _, k := range KnownStatuses {
		if s == k {
			return true
		}
	}
	return false
}
