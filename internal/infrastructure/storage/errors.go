package storage

import (
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/lib/pq"

	"SlateBuilder/internal/ports"
)

// classify wraps store failures that are worth one immediate retry in
// ports.TransientError. Everything else passes through unchanged and is
// treated as fatal by the persistor.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return ports.Transient(err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"57P03": // cannot_connect_now
			return true
		}
		// Class 08: connection exceptions.
		return pqErr.Code.Class() == "08"
	}

	return false
}
