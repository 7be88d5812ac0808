package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeBuildDistribution() string {
	return `Builds the empirical per-site recruitment distribution from observed patient counts.

USE WHEN:
- Checking that a per-site sample is usable before simulating
- Showing which per-site outcomes occur and how often
- Storing a sample so later simulate_recruitment calls can omit counts

INTERPRETING RESULTS:
- support lists the distinct per-site patient counts in ascending order
- probabilities[i] is the share of sites that recruited support[i]
- A single support value means every simulated site recruits exactly that many
- Errors name the offending input: empty samples, all-zero samples and negative counts are rejected

METRICS RETURNED:
- support, probabilities, counts (sites per value)
- sample_size (sites observed), sample_total (patients observed)`
}

func describeSimulateRecruitment() string {
	return `Runs a Monte Carlo simulation of study-wide recruitment: each trial draws one outcome per site from the empirical distribution and sums them.

USE WHEN:
- Estimating the chance a multi-site study reaches its enrollment goal
- Comparing how many sites are needed to hit a target
- Quantifying the spread of likely total enrollment

INTERPRETING RESULTS:
- success_probability is the fraction of trials whose total reached or exceeded the goal
- mean is the expected total; meets_goal is true when the mean reaches the goal
- p5..p95 bound the likely range; a goal above p95 is rarely reached
- Sites are independent and outcomes are resampled only from observed values
- Pass the same seed to reproduce a run exactly

METRICS RETURNED:
- mean, success_probability, seed
- histogram: min, max and the count of trials per integer total
- summary: std_dev, min, max, p5, p25, p50, p75, p95, expected_per_site`
}
