// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gate implements the pre-launch access curtain.

A window is locked while curtain_enabled is set and its start date is
unset or still in the future. Once a window version opens it stays open,
even if the clock moves backwards. Writing a new window starts a new
version, which is evaluated from scratch.

Run keeps the gate current in the background. It sleeps until the start
date, never longer than the configured maximum, and wakes immediately on
any settings change.

Middleware lets /admin/, /auth/, /health and /gate through in either
state and answers everything else with 503 while locked.
*/
package gate
