// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package store

import (
	"context"
	"fmt"
	"time"
)

// stampColumns is the allow-list SetStamp validates against, guarding SQL
// injection of the column name since it is interpolated into the statement.
var stampColumns = map[string]bool{
	"info_last_updated_at":      true,
	"actions_last_updated_at":   true,
	"price_data_latest_date":    true,
	"full_data_last_updated_at": true,
}

// SetStamp updates one whitelisted freshness column on a Security row. A nil
// value means "now()"; otherwise the given time is written directly (used
// to set price_data_latest_date to a specific date).
func (s *Store) SetStamp(ctx context.Context, securityID int64, field string, value *time.Time) error {
	if !stampColumns[field] {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, field)
	}

	if value == nil {
		sql := fmt.Sprintf(`UPDATE securities SET %s = now() WHERE id = $1`, field)
		_, err := s.pool.Exec(ctx, sql, securityID)
		return err
	}

	sql := fmt.Sprintf(`UPDATE securities SET %s = $1 WHERE id = $2`, field)
	_, err := s.pool.Exec(ctx, sql, *value, securityID)
	return err
}
