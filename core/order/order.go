package order

import "time"

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

// Order is a credit top-up purchase bound to a payment provider's id.
// Credits are applied to the profile exactly once, on fulfillment.
type Order struct {
	ID          string    `json:"id" db:"order_id"`
	UserID      string    `json:"userId" db:"user_id"`
	ProviderID  string    `json:"providerId" db:"provider_id"`
	Credits     int       `json:"credits" db:"credits"`
	AmountCents int       `json:"amountCents" db:"amount_cents"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Pack is a fixed credit bundle offered for purchase. The catalog is
// compiled in; prices are in USD cents.
type Pack struct {
	ID          string `json:"id"`
	NameEN      string `json:"nameEn"`
	NameSO      string `json:"nameSo"`
	Credits     int    `json:"credits"`
	AmountCents int    `json:"amountCents"`
}

var Packs = []Pack{
	{ID: "starter", NameEN: "Starter", NameSO: "Bilow", Credits: 50, AmountCents: 499},
	{ID: "standard", NameEN: "Standard", NameSO: "Caadi", Credits: 120, AmountCents: 999},
	{ID: "bulk", NameEN: "Bulk", NameSO: "Badan", Credits: 300, AmountCents: 1999},
}

func FindPack(id string) (Pack, bool) {
	for _, p := range Packs {
		if p.ID == id {
			return p, true
		}
	}
	return Pack{}, false
}

type CheckoutNew struct {
	PackID string `json:"packId" validate:"required"`
}
