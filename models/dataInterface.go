package models

import "github.com/mmdatafocus/distribution_backend/utils"

// Data is what the request loaders need from a reference record.
type Data interface {
	GetId() int
	// GetDefault is the inactive placeholder used for ids with no row.
	GetDefault(id int) Data
}

func (c Customer) GetId() int { return c.ID }

func (c Customer) GetDefault(id int) Data {
	return Customer{ID: id, IsActive: utils.NewFalse()}
}

func (p Product) GetId() int { return p.ID }

func (p Product) GetDefault(id int) Data {
	return Product{ID: id, IsActive: utils.NewFalse()}
}

func (s Supplier) GetId() int { return s.ID }

func (s Supplier) GetDefault(id int) Data {
	return Supplier{ID: id, IsActive: utils.NewFalse()}
}
