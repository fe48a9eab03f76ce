package metricsexport

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "net"

func newListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
