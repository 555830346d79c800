// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin

package testing

import (
	"context"
	"errors"
	"fmt"
	"github.com/hchauvin/smoke/pkg/smoke"
	"io/ioutil"
)

// ExpectBody sends the smoke test request to the given endpoint and checks
// both the status code and the text body.
func ExpectBody(ctx context.Context, endpoint string, expectedBody string) error {
	if endpoint == "" {
		return errors.New("endpoint is missing")
	}

	req := smoke.DefaultRequest()
	req.URL = endpoint
	resp, err := (&smoke.Runner{Out: ioutil.Discard}).Run(ctx, req)
	if err != nil {
		return err
	}
	if resp.Text != expectedBody {
		return fmt.Errorf("unexpected body: expected '%s', got '%s'", expectedBody, resp.Text)
	}
	return nil
}
