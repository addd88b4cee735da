// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pointlander/pimc"
)

var (
	// FlagClassical runs the classical grand-canonical reference model
	// instead of the quantum worm-algorithm engine.
	FlagClassical = flag.Bool("classical", false, "the classical grand canonical model")
	// FlagCheckpoint is where the final worldline configuration is written.
	FlagCheckpoint = flag.String("checkpoint", "pimc.chk", "path integral checkpoint file")
	// FlagSteps is the number of production Monte Carlo steps.
	FlagSteps = flag.Int("steps", 20000, "number of production Monte Carlo steps")
	// FlagParticles is the number of worldlines to seed the box with.
	FlagParticles = flag.Int("particles", 4, "number of particles")
	// FlagSlices is the number of imaginary time slices.
	FlagSlices = flag.Int("slices", 32, "number of imaginary time slices")
)

// harmonicTrap is the external potential: a single-particle harmonic well,
// the same V(x) = 0.5*x^2 the reference engine studies in its simplest
// (Original) mode.
func harmonicTrap(pos []float64) float64 {
	v := 0.0
	for _, x := range pos {
		v += 0.5 * x * x
	}
	return v
}

// softCore is the interparticle potential: a short-ranged repulsion that
// keeps worldlines from stacking, evaluated on the minimum-image
// separation the Box already provides.
func softCore(sep []float64) float64 {
	r2 := 0.0
	for _, x := range sep {
		r2 += x * x
	}
	return 1.0 / (r2 + 0.25)
}

// seedRing lays down one closed worldline per particle: numSlices beads at
// the same spatial position, one per imaginary-time slice, linked into a
// cycle. This is the path-integral analogue of "start every atom at rest".
func seedRing(path *pimc.Path, numSlices int, pos []float64) {
	first := path.AddBead(0, pos)
	prev := first
	for slice := 1; slice < numSlices; slice++ {
		prev = path.AddNextBead(prev, pos)
	}
	path.Link(prev, first)
}

// runWorm builds a worm-algorithm engine over a harmonically trapped,
// weakly interacting boson gas and drives it through thermalization and
// production, reporting per-move acceptance statistics the way the
// reference engine reports acceptance percentages for its Metropolis walk.
func runWorm(steps, particles, slices int) {
	fmt.Println(" Path Integral Monte Carlo, worm algorithm")
	fmt.Println(" ------------------------------------------")
	fmt.Println(" Number of particles = ", particles)
	fmt.Println(" Number of time slices = ", slices)
	fmt.Println(" Number of production steps = ", steps)

	box := pimc.NewBox([]float64{10, 10})
	c := pimc.NewConstants(1.0, 0.0, 0.5, 1.0, 8.0, 4, 3, slices, box.Dim())
	action := pimc.NewLocalAction(box, c, harmonicTrap, softCore)
	rng := pimc.NewMathRand(1)
	lookup := pimc.NewGridLookup(1.0)

	path := pimc.NewPath(box, slices)
	for i := 0; i < particles; i++ {
		pos := box.RandPosition(rng)
		seedRing(path, slices, pos)
	}

	c.SetAttemptProb("open", 1.0)
	c.SetAttemptProb("close", 1.0)
	c.SetAttemptProb("insert", 1.0)
	c.SetAttemptProb("remove", 1.0)

	out := os.Stdout
	scheduler := pimc.NewScheduler(rng, out)
	scheduler.AddMove(pimc.NewCenterOfMassMove(path, action, rng, c), 1.0)
	scheduler.AddMove(pimc.NewStagingMove(path, action, rng, c), 1.0)
	scheduler.AddMove(pimc.NewBisectionMove(path, action, rng, c), 1.0)
	scheduler.AddMove(pimc.NewOpenMove(path, action, rng, c), 1.0)
	scheduler.AddMove(pimc.NewCloseMove(path, action, rng, c), 1.0)
	scheduler.AddMove(pimc.NewInsertMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewRemoveMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewAdvanceHeadMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewRecedeHeadMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewAdvanceTailMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewRecedeTailMove(path, action, rng, c), 0.5)
	scheduler.AddMove(pimc.NewSwapHeadMove(path, action, rng, c, lookup), 0.25)
	scheduler.AddMove(pimc.NewSwapTailMove(path, action, rng, c, lookup), 0.25)

	thermSteps := steps / 5
	fmt.Printf(" Doing %v thermalization steps ...\n", thermSteps)
	for step := 0; step < thermSteps; step++ {
		scheduler.Step(path)
	}
	if err := path.CheckInvariants(); err != nil {
		panic(err)
	}

	fmt.Println(" Doing ", steps, " production steps ...")
	scheduler.Run(path, steps, steps/10)

	fmt.Println(" Final true particle number = ", path.GetTrueNumParticles())
	fmt.Println(" Final total live beads = ", path.TotalBeadsOn())

	f, err := os.Create(*FlagCheckpoint)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := path.Encode(f); err != nil {
		panic(err)
	}
	fmt.Println(" Worldline configuration written to ", *FlagCheckpoint)
}

// runClassical drives the grand-canonical classical Monte Carlo reference
// model: a single time slice, no worm, just particle-number fluctuation
// via insertion and deletion.
func runClassical(steps, particles int) {
	fmt.Println(" Classical grand canonical Monte Carlo")
	fmt.Println(" --------------------------------------")

	box := pimc.NewBox([]float64{10, 10})
	c := pimc.NewConstants(1.0, -1.0, 0.5, 1.0, 1.0, 4, 2, 1, box.Dim())
	rng := pimc.NewMathRand(1)

	initial := make([][]float64, particles)
	for i := range initial {
		initial[i] = box.RandPosition(rng)
	}
	cm := pimc.NewClassicalMC(box, c, harmonicTrap, softCore, rng, initial)
	cm.Observer = func(step int, energy, density float64) {
		fmt.Printf(" step %v: <E> = %v, density = %v\n", step, energy, density)
	}

	for step := 0; step < steps; step++ {
		cm.Step(steps / 20)
	}
	fmt.Println(" Final particle count = ", cm.NumParticles())
}

func main() {
	flag.Parse()

	if *FlagClassical {
		runClassical(*FlagSteps, *FlagParticles)
		return
	}

	runWorm(*FlagSteps, *FlagParticles, *FlagSlices)
}
