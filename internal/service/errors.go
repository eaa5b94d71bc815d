package service

import (
	"github.com/gupfee/greenhaus/internal/domain"
)

var (
	ErrEmptyCart        = domain.Errorf(domain.EINVALID, "", "Cart is empty")
	ErrControllerClosed = domain.Errorf(domain.EINTERNAL, "", "Cart controller has been closed")
)
