/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package probe

import "errors"

var (
	errNoProbe         = errors.New("no probe registered for kind")
	errEmptyAddress    = errors.New("empty address")
	errNoIPv4          = errors.New("no IPv4 address")
	errUnsupportedSNMP = errors.New("unsupported SNMP version")
	errNoVariables     = errors.New("response carried no variables")
)
