package domain

import "errors"

var errMissingResolutionTimestamps = errors.New("domain: resolved market must carry close_time and resolved_time")
