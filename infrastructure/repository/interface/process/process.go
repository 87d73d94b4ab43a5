package process

import "netscan/domain/entity"

type Repository interface {
	FindByAddress(address uint64) (*entity.Process, error)
}
